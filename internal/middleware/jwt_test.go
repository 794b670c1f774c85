package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moove/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubParser map[string]*service.UserClaims

func (p stubParser) ParseAccessToken(token string) (*service.UserClaims, error) {
	if c, ok := p[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func newJWTRouter(devMode bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	parser := stubParser{"good": {UserID: "1", Username: "admin", Role: "admin"}}
	r := gin.New()
	r.Use(TraceMiddleware(), JWTMiddleware(parser, devMode))
	r.GET("/who", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.String(http.StatusOK, service.GetOperator(ctx)+"|"+service.GetTraceID(ctx))
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		devMode  bool
		headers  map[string]string
		wantCode int
		wantBody string
	}{
		{"missing header", false, nil, http.StatusUnauthorized, ""},
		{"bad token", false, map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, ""},
		{"wrong scheme", false, map[string]string{"Authorization": "Basic good"}, http.StatusUnauthorized, ""},
		{"valid token", false, map[string]string{"Authorization": "Bearer good", "X-Trace-ID": "t1"}, http.StatusOK, "admin|t1"},
		{"dev pass ignored outside dev", false, map[string]string{"X-Dev-Pass": "true"}, http.StatusUnauthorized, ""},
		{"dev pass", true, map[string]string{"X-Dev-Pass": "true", "X-Trace-ID": "t2"}, http.StatusOK, "dev-admin|t2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newJWTRouter(tt.devMode)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/who", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
