package api

import (
	"moove/assets"
	"moove/internal/metrics"
	"moove/internal/middleware"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RouterOptions struct {
	Environment       string
	Compression       bool
	RequestsPerSecond int
	// RateLimiter backs the write limiter; nil disables it.
	RateLimiter redis.Scripter
	Tokens      middleware.TokenParser
}

func RegisterRoutes(themeHandler *ThemeHandler, settingHandler *SettingHandler, authHandler *AuthHandler, opts RouterOptions) *gin.Engine {
	r := gin.New()

	devMode := opts.Environment == "dev"

	r.Use(
		middleware.CorsMiddleware(),
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
		middleware.TraceMiddleware(),
	)
	if opts.Compression {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}
	r.SetTrustedProxies(nil)

	r.GET("/health", settingHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Theme surface used by browsers and the host
	r.GET("/pluginfile.php/:contextid/:component/:filearea/*args", themeHandler.PluginFile)
	r.GET(assets.LoaderPath, themeHandler.LoaderJS)
	if themeHandler.override != nil {
		r.POST("/v1/h5p/alter", themeHandler.AlterH5P)
	}
	r.GET("/v1/scss/:kind", themeHandler.SCSS)

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authProtected := r.Group("/v1/auth")
	authProtected.Use(middleware.JWTMiddleware(opts.Tokens, devMode))
	{
		authProtected.GET("/me", authHandler.GetProfile)
		authProtected.POST("/logout", authHandler.Logout)
	}

	protected := r.Group("/v1/settings")
	protected.Use(middleware.JWTMiddleware(opts.Tokens, devMode))

	var writeLimiter gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RateLimiter != nil {
		writeLimiter = middleware.RateLimitMiddleware(opts.RateLimiter, middleware.RateLimiterConfig{
			Limit: opts.RequestsPerSecond,
		})
	}

	{
		protected.GET("/:component", settingHandler.ListSettings)
		protected.GET("/:component/:name", settingHandler.GetSetting)
		protected.PUT("/:component/:name", writeLimiter, settingHandler.SetSetting)
		protected.DELETE("/:component/:name", writeLimiter, settingHandler.UnsetSetting)
		protected.GET("/:component/:name/audits", settingHandler.GetSettingAudits)
	}
	return r
}
