package service

import (
	"context"
	"encoding/json"
	"fmt"

	"moove/assets"
	"moove/internal/repository"
	v1 "moove/pkg/api/v1"
	"moove/pkg/constraints"
	"moove/pkg/logger"

	"go.uber.org/zap"
)

// HVPStyleFilename is the file name the stylesheet is published under.
const HVPStyleFilename = "themehvp.css"

// StyleAlterer and ScriptAlterer are the two renderer hooks the host calls
// during an H5P render pass.
type StyleAlterer interface {
	AlterStyles(ctx context.Context, styles *[]v1.Asset, libraries map[string]json.RawMessage, embedType string)
}

type ScriptAlterer interface {
	AlterScripts(ctx context.Context, scripts *[]v1.Asset, libraries map[string]json.RawMessage, embedType string)
}

// H5POverride is the theme's renderer override: both hooks together.
type H5POverride interface {
	StyleAlterer
	ScriptAlterer
}

// HostCapabilities lists the hooks the host renderer exposes. It is
// resolved once at startup.
type HostCapabilities struct {
	AlterStyles  bool
	AlterScripts bool
}

// SiteInfo is what the renderer needs to build absolute asset URLs.
type SiteInfo struct {
	ThemeName       string
	WWWRoot         string
	HTTPSWWWRoot    string
	SystemContextID int64
}

type H5PRenderer struct {
	store repository.SettingStore
	site  SiteInfo
}

// NewH5PRenderer returns the override, or nil and false when the host does
// not expose both hooks; in that case no override exists at all.
func NewH5PRenderer(caps HostCapabilities, store repository.SettingStore, site SiteInfo) (H5POverride, bool) {
	if !caps.AlterStyles || !caps.AlterScripts {
		logger.Info("h5p renderer hooks unavailable, override disabled",
			zap.Bool("alter_styles", caps.AlterStyles),
			zap.Bool("alter_scripts", caps.AlterScripts))
		return nil, false
	}
	return &H5PRenderer{store: store, site: site}, true
}

// StyleURL points at the pluginfile responder; the item id is the content
// fingerprint so the URL changes along with the CSS.
func (r *H5PRenderer) StyleURL(content string) string {
	return fmt.Sprintf("%s/pluginfile.php/%d/%s/hvp/%s/%s",
		r.site.WWWRoot,
		r.site.SystemContextID,
		constraints.ThemeComponent(r.site.ThemeName),
		Fingerprint(content),
		HVPStyleFilename,
	)
}

func (r *H5PRenderer) ScriptURL() string {
	return r.site.HTTPSWWWRoot + assets.LoaderPath
}

// AlterStyles appends the custom stylesheet when the theme has H5P CSS.
func (r *H5PRenderer) AlterStyles(ctx context.Context, styles *[]v1.Asset, _ map[string]json.RawMessage, _ string) {
	component := constraints.ThemeComponent(r.site.ThemeName)
	content, _, err := r.store.Get(ctx, component, constraints.SettingSCSSH5P)
	if err != nil {
		logger.Warn("failed to read h5p css, skipping stylesheet", zap.String("component", component), zap.Error(err))
		return
	}
	if content == "" {
		return
	}
	*styles = append(*styles, v1.Asset{Path: r.StyleURL(content), Version: ""})
}

// AlterScripts always appends the client loader.
func (r *H5PRenderer) AlterScripts(_ context.Context, scripts *[]v1.Asset, _ map[string]json.RawMessage, _ string) {
	*scripts = append(*scripts, v1.Asset{Path: r.ScriptURL(), Version: ""})
}
