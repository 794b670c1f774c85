package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"moove/assets"
	"moove/internal/repository"
	"moove/pkg/constraints"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

const (
	PresetDefault = "default.scss"
	PresetPlain   = "plain.scss"
	presetArea    = "preset"
)

// PresetReader loads administrator-uploaded preset files.
type PresetReader interface {
	ReadFile(area, filename string) ([]byte, error)
}

// scssVariable maps a setting onto the SCSS variable it overrides.
type scssVariable struct {
	setting  string
	variable string
}

// Order matters: later variables may reference earlier ones.
var preVariables = []scssVariable{
	{constraints.SettingBrandColor, "brand-primary"},
	{constraints.SettingSecondaryMenu, "secondary-menu-color"},
	{constraints.SettingFontSite, "font-family-sans-serif"},
}

// SCSSService produces the SCSS the host compiles into the theme stylesheet.
type SCSSService struct {
	store   repository.SettingStore
	presets PresetReader
	sources fs.FS
	site    SiteInfo
}

func NewSCSSService(store repository.SettingStore, presets PresetReader, site SiteInfo) *SCSSService {
	return &SCSSService{
		store:   store,
		presets: presets,
		sources: assets.SCSS(),
		site:    site,
	}
}

func (s *SCSSService) settings(ctx context.Context) (map[string]string, error) {
	component := constraints.ThemeComponent(s.site.ThemeName)
	values, err := s.store.List(ctx, component)
	if err != nil {
		return nil, fmt.Errorf("load %s settings: %w", component, err)
	}
	return values, nil
}

func (s *SCSSService) source(name string) string {
	b, err := fs.ReadFile(s.sources, name)
	if err != nil {
		// embedded at build time
		panic(err)
	}
	return string(b)
}

// MainSCSS is the selected preset wrapped in the theme's own variables,
// rules and security overrides.
func (s *SCSSService) MainSCSS(ctx context.Context) (string, error) {
	values, err := s.settings(ctx)
	if err != nil {
		return "", err
	}

	preset := s.preset(values[constraints.SettingPreset])

	parts := []string{
		s.source("moove/_variables.scss"),
		preset,
		s.source("default.scss"),
		s.source("moove/_security.scss"),
	}
	return strings.Join(parts, "\n"), nil
}

func (s *SCSSService) preset(filename string) string {
	switch filename {
	case PresetDefault, "":
		return s.source("preset/default.scss")
	case PresetPlain:
		return s.source("preset/plain.scss")
	}

	b, err := s.presets.ReadFile(presetArea, filename)
	if err != nil {
		if !errors.Is(err, repository.ErrFileNotFound) {
			logger.Warn("failed to read preset, using default", zap.String("preset", filename), zap.Error(err))
		}
		return s.source("preset/default.scss")
	}
	return string(b)
}

// LoginBackgroundURL is the public URL of the login background image, or ""
// when none is configured.
func (s *SCSSService) LoginBackgroundURL(filename string) string {
	filename = strings.TrimPrefix(filename, "/")
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("%s/pluginfile.php/%d/%s/%s/0/%s",
		s.site.WWWRoot,
		s.site.SystemContextID,
		constraints.ThemeComponent(s.site.ThemeName),
		constraints.SettingLoginBackground,
		filename,
	)
}

// ExtraSCSS is appended after the main SCSS: the administrator's raw SCSS
// followed by the login background rule.
func (s *SCSSService) ExtraSCSS(ctx context.Context) (string, error) {
	values, err := s.settings(ctx)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	if url := s.LoginBackgroundURL(values[constraints.SettingLoginBackground]); url != "" {
		content.WriteString("body.pagelayout-login #page { ")
		fmt.Fprintf(&content, "background-image: url('%s'); background-size: cover;", url)
		content.WriteString(" }")
	}

	if raw := values[constraints.SettingSCSS]; raw != "" {
		return raw + " " + content.String(), nil
	}
	return content.String(), nil
}

// PreSCSS is prepended before everything else: variable overrides from the
// colour and font settings, then the administrator's raw pre-SCSS.
func (s *SCSSService) PreSCSS(ctx context.Context) (string, error) {
	values, err := s.settings(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, v := range preVariables {
		value := values[v.setting]
		if value == "" {
			continue
		}
		if v.setting == constraints.SettingFontSite {
			fmt.Fprintf(&b, "$%s: \"%s\", sans-serif !default;\n", v.variable, value)
			continue
		}
		fmt.Fprintf(&b, "$%s: %s;\n", v.variable, value)
	}

	b.WriteString(values[constraints.SettingSCSSPre])
	return b.String(), nil
}

// PrecompiledCSS is served when the host cannot compile SCSS.
func (s *SCSSService) PrecompiledCSS() []byte {
	return assets.PrecompiledCSS
}
