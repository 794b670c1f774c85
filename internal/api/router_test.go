package api

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"moove/assets"
	"moove/internal/dto/resp"
	"moove/internal/repository"
	"moove/internal/service"
	v1 "moove/pkg/api/v1"
	"moove/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

var testSite = service.SiteInfo{
	ThemeName:       "moove",
	WWWRoot:         "https://lms.example.com",
	HTTPSWWWRoot:    "https://lms.example.com",
	SystemContextID: 1,
}

type fixture struct {
	router *gin.Engine
	store  *repository.MemoryStore
	files  *repository.FileRepository
}

func newFixture(t *testing.T, caps service.HostCapabilities, compression bool) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	files := repository.NewFileRepository(t.TempDir())

	hvp := service.NewHVPCSSService(store, nil)
	pluginFiles := service.NewPluginFileService("moove", 1, hvp, service.NewDiskSettingFileServer(files), nil)
	override, _ := service.NewH5PRenderer(caps, store, testSite)
	scss := service.NewSCSSService(store, files, testSite)
	auth := service.NewAuthService(nil, []byte("test-secret"), service.AdminCredentials{Username: "admin", Password: "pw"}, time.Minute, time.Hour)

	r := RegisterRoutes(
		NewThemeHandler("moove", pluginFiles, override, scss),
		NewSettingHandler(service.NewSettingService(store, nil), store),
		NewAuthHandler(auth),
		RouterOptions{Environment: "dev", Compression: compression, Tokens: auth},
	)
	return &fixture{router: r, store: store, files: files}
}

func (f *fixture) do(method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func bothHooks() service.HostCapabilities {
	return service.HostCapabilities{AlterStyles: true, AlterScripts: true}
}

func TestPluginFile_HVPStylesheet(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	require.NoError(t, f.store.Set(context.Background(), "theme_moove", "scssh5p", ".h5p{}"))

	w := f.do("GET", "/pluginfile.php/1/theme_moove/hvp/abc/themehvp.css", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ".h5p{}", w.Body.String())
	assert.Equal(t, `"`+service.Fingerprint(".h5p{}")+`"`, w.Header().Get("ETag"))
	assert.Equal(t, "6", w.Header().Get("Content-Length"))
}

func TestPluginFile_Gzip(t *testing.T) {
	f := newFixture(t, bothHooks(), true)
	css := strings.Repeat(".h5p{color:red}", 20)
	require.NoError(t, f.store.Set(context.Background(), "theme_moove", "scssh5p", css))

	w := f.do("GET", "/pluginfile.php/1/theme_moove/hvp/abc/themehvp.css", nil, map[string]string{"Accept-Encoding": "gzip"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))

	zr, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, css, string(plain))
	assert.Equal(t, `"`+service.Fingerprint(css)+`"`, w.Header().Get("ETag"))
}

func TestPluginFile_NotFound(t *testing.T) {
	f := newFixture(t, bothHooks(), false)

	tests := []struct {
		name   string
		target string
	}{
		{"course context", "/pluginfile.php/5/theme_moove/hvp/abc/themehvp.css"},
		{"bad context id", "/pluginfile.php/x/theme_moove/hvp/abc/themehvp.css"},
		{"other component", "/pluginfile.php/1/theme_boost/hvp/abc/themehvp.css"},
		{"unknown area", "/pluginfile.php/1/theme_moove/backup/0/a.txt"},
		{"missing setting file", "/pluginfile.php/1/theme_moove/logo/0/logo.png"},
		{"slider out of range", "/pluginfile.php/1/theme_moove/sliderimage0/0/a.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do("GET", tt.target, nil, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestPluginFile_SettingFile(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	require.NoError(t, f.files.WriteFile("sliderimage3", "slide.jpg", []byte("jpegdata")))

	w := f.do("GET", "/pluginfile.php/1/theme_moove/sliderimage3/12345/slide.jpg?forcedownload=1", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpegdata", w.Body.String())
	assert.Equal(t, `attachment; filename="slide.jpg"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "public, max-age=5184000", w.Header().Get("Cache-Control"))
}

func TestLoaderJS(t *testing.T) {
	f := newFixture(t, bothHooks(), false)

	w := f.do("GET", assets.LoaderPath, nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/javascript; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "highlightAll")
}

func TestAlterH5P(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	require.NoError(t, f.store.Set(context.Background(), "theme_moove", "scssh5p", "x{}"))

	body, _ := json.Marshal(v1.AlterRequest{
		Styles:    []v1.Asset{{Path: "/core.css", Version: "?ver=1"}},
		EmbedType: "iframe",
	})
	w := f.do("POST", "/v1/h5p/alter", body, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out v1.AlterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Styles, 2)
	assert.Equal(t, "/core.css", out.Styles[0].Path)
	assert.Equal(t, "https://lms.example.com/pluginfile.php/1/theme_moove/hvp/"+service.Fingerprint("x{}")+"/themehvp.css", out.Styles[1].Path)
	require.Len(t, out.Scripts, 1)
	assert.Equal(t, "https://lms.example.com"+assets.LoaderPath, out.Scripts[0].Path)
	assert.Equal(t, "", out.Scripts[0].Version)
}

func TestAlterH5P_NotRegisteredWithoutHooks(t *testing.T) {
	f := newFixture(t, service.HostCapabilities{AlterStyles: true}, false)

	w := f.do("POST", "/v1/h5p/alter", []byte(`{}`), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSCSSHooks(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	require.NoError(t, f.store.Set(context.Background(), "theme_moove", "brandcolor", "#123456"))

	w := f.do("GET", "/v1/scss/pre", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "$brand-primary: #123456;\n", w.Body.String())
	assert.Equal(t, "text/x-scss; charset=utf-8", w.Header().Get("Content-Type"))

	w = f.do("GET", "/v1/scss/precompiled", nil, nil)
	assert.Equal(t, "text/css; charset=utf-8", w.Header().Get("Content-Type"))

	w = f.do("GET", "/v1/scss/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsAPI(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	dev := map[string]string{"X-Dev-Pass": "true"}

	w := f.do("GET", "/v1/settings/theme_moove/scssh5p", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("PUT", "/v1/settings/theme_moove/scssh5p", []byte(`{"value":"a{}"}`), dev)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do("GET", "/v1/settings/theme_moove/scssh5p", nil, dev)
	require.Equal(t, http.StatusOK, w.Code)
	var item resp.SettingItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "a{}", item.Value)

	w = f.do("GET", "/v1/settings/theme_moove", nil, dev)
	require.Equal(t, http.StatusOK, w.Code)
	var list resp.SettingListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, "a{}", list.Settings["scssh5p"])

	w = f.do("PUT", "/v1/settings/theme_moove/scssh5p", []byte(`{}`), dev)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("PUT", "/v1/settings/moove/Bad", []byte(`{"value":"x"}`), dev)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("DELETE", "/v1/settings/theme_moove/scssh5p", nil, dev)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do("DELETE", "/v1/settings/theme_moove/scssh5p", nil, dev)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("GET", "/v1/settings/theme_moove/scssh5p/audits", nil, dev)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_LoginAndProfile(t *testing.T) {
	f := newFixture(t, bothHooks(), false)

	w := f.do("POST", "/v1/auth/login", []byte(`{"username":"admin","password":"wrong"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do("GET", "/v1/auth/me", nil, map[string]string{"X-Dev-Pass": "true"})
	require.Equal(t, http.StatusOK, w.Code)
	var me resp.UserInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "dev-admin", me.Username)
}

func signTestToken(t *testing.T, tokenType string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.UserClaims{
		UserID:   "1",
		Username: "admin",
		Role:     "admin",
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.Issuer,
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestProtectedRoutes_RejectRefreshToken(t *testing.T) {
	f := newFixture(t, bothHooks(), false)

	refresh := map[string]string{"Authorization": "Bearer " + signTestToken(t, service.TokenTypeRefresh, 7*24*time.Hour)}
	w := f.do("PUT", "/v1/settings/theme_moove/scssh5p", []byte(`{"value":"a{}"}`), refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do("GET", "/v1/auth/me", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, found, err := f.store.Get(context.Background(), "theme_moove", "scssh5p")
	require.NoError(t, err)
	assert.False(t, found)

	access := map[string]string{"Authorization": "Bearer " + signTestToken(t, service.TokenTypeAccess, time.Minute)}
	w = f.do("PUT", "/v1/settings/theme_moove/scssh5p", []byte(`{"value":"a{}"}`), access)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do("GET", "/v1/auth/me", nil, access)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, bothHooks(), false)
	w := f.do("GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
