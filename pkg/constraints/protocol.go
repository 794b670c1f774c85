package constraints

// Setting names stored under the theme component.
const (
	SettingSCSSH5P         = "scssh5p"
	SettingHVPFingerprint  = "hvpccssmd5"
	SettingHVPLastModified = "hvpccsslm"
	SettingPreset          = "preset"
	SettingSCSS            = "scss"
	SettingSCSSPre         = "scsspre"
	SettingBrandColor      = "brandcolor"
	SettingSecondaryMenu   = "secondarymenucolor"
	SettingFontSite        = "fontsite"
	SettingLoginBackground = "loginbgimg"
)

// H5P embed types.
const (
	EmbedDiv      = "div"
	EmbedIframe   = "iframe"
	EmbedExternal = "external"
	EmbedEditor   = "editor"
)

// ThemeComponent is the config namespace of a theme: "moove" -> "theme_moove".
func ThemeComponent(themeName string) string {
	return "theme_" + themeName
}
