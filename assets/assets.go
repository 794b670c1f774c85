// Package assets holds the static files shipped with the theme: the H5P
// client loader, the SCSS sources fed to the host's SCSS pipeline and the
// precompiled fallback stylesheet.
package assets

import (
	"embed"
	"io/fs"
)

// LoaderPath is the URL path of the H5P client loader, relative to httpswwwroot.
const LoaderPath = "/theme/moove/amd/src/customJSh5p.js"

//go:embed amd/src/customJSh5p.js
var LoaderJS []byte

//go:embed style/moodle.css
var PrecompiledCSS []byte

//go:embed scss/preset/default.scss scss/preset/plain.scss scss/default.scss scss/moove/_variables.scss scss/moove/_security.scss
var scssFS embed.FS

// SCSS exposes the embedded SCSS tree rooted at scss/.
func SCSS() fs.FS {
	sub, err := fs.Sub(scssFS, "scss")
	if err != nil {
		panic(err)
	}
	return sub
}
