package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"moove/assets"
	"moove/internal/service"
	v1 "moove/pkg/api/v1"
	"moove/pkg/constraints"

	"github.com/gin-gonic/gin"
)

// PluginFileServer dispatches pluginfile requests.
type PluginFileServer interface {
	Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, req service.PluginFileRequest) bool
}

// SCSSProvider supplies the SCSS hooks.
type SCSSProvider interface {
	MainSCSS(ctx context.Context) (string, error)
	ExtraSCSS(ctx context.Context) (string, error)
	PreSCSS(ctx context.Context) (string, error)
	PrecompiledCSS() []byte
}

type ThemeHandler struct {
	themeName string
	files     PluginFileServer
	override  service.H5POverride
	scss      SCSSProvider
}

// NewThemeHandler builds the public theme endpoints. override may be nil
// when the host renderer exposes no alter hooks.
func NewThemeHandler(themeName string, files PluginFileServer, override service.H5POverride, scss SCSSProvider) *ThemeHandler {
	return &ThemeHandler{
		themeName: themeName,
		files:     files,
		override:  override,
		scss:      scss,
	}
}

// PluginFile serves /pluginfile.php/:contextid/:component/:filearea/*args.
func (h *ThemeHandler) PluginFile(c *gin.Context) {
	contextID, err := strconv.ParseInt(c.Param("contextid"), 10, 64)
	if err != nil || c.Param("component") != constraints.ThemeComponent(h.themeName) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	var args []string
	for _, a := range strings.Split(strings.Trim(c.Param("args"), "/"), "/") {
		if a != "" {
			args = append(args, a)
		}
	}

	forceDownload, _ := strconv.ParseBool(c.Query("forcedownload"))
	served := h.files.Serve(c.Request.Context(), c.Writer, c.Request, service.PluginFileRequest{
		ContextID:     contextID,
		FileArea:      c.Param("filearea"),
		Args:          args,
		ForceDownload: forceDownload,
	})
	if !served {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Abort()
}

// LoaderJS serves the client loader script.
func (h *ThemeHandler) LoaderJS(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", assets.LoaderJS)
}

// AlterH5P runs both renderer hooks over the submitted asset lists.
func (h *ThemeHandler) AlterH5P(c *gin.Context) {
	var r v1.AlterRequest
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}
	if r.Styles == nil {
		r.Styles = []v1.Asset{}
	}
	if r.Scripts == nil {
		r.Scripts = []v1.Asset{}
	}

	ctx := c.Request.Context()
	h.override.AlterStyles(ctx, &r.Styles, r.Libraries, r.EmbedType)
	h.override.AlterScripts(ctx, &r.Scripts, r.Libraries, r.EmbedType)

	c.JSON(http.StatusOK, v1.AlterResponse{Styles: r.Styles, Scripts: r.Scripts})
}

func (h *ThemeHandler) SCSS(c *gin.Context) {
	var (
		out string
		err error
	)
	ctx := c.Request.Context()
	switch c.Param("kind") {
	case "main":
		out, err = h.scss.MainSCSS(ctx)
	case "extra":
		out, err = h.scss.ExtraSCSS(ctx)
	case "pre":
		out, err = h.scss.PreSCSS(ctx)
	case "precompiled":
		c.Data(http.StatusOK, "text/css; charset=utf-8", h.scss.PrecompiledCSS())
		return
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scss hook"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/x-scss; charset=utf-8", []byte(out))
}
