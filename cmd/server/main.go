package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moove/internal/api"
	"moove/internal/config"
	"moove/internal/metrics"
	"moove/internal/model"
	"moove/internal/repository"
	"moove/internal/service"
	"moove/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Redis backs admin sessions and the write rate limiter. Theme serving
	// does not depend on it, so an unreachable Redis only degrades those.
	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, admin login disabled and rate limiting local only", zap.Error(err))
	}
	defer rdb.Close()

	var db *gorm.DB
	if cfg.Store.Driver == "mysql" || cfg.Audit.Enabled {
		db, err = initDB(cfg.MySQL)
		if err != nil {
			return err
		}
	}

	store, closeStore, err := initStore(cfg, rdb, db)
	if err != nil {
		return err
	}
	defer closeStore()

	var audit repository.AuditInterface = repository.NopAudit{}
	if cfg.Audit.Enabled {
		audit = repository.NewAuditRepository(db)
	}

	site := service.SiteInfo{
		ThemeName:       cfg.Theme.Name,
		WWWRoot:         cfg.Theme.WWWRoot,
		HTTPSWWWRoot:    cfg.Theme.HTTPSWWWRoot,
		SystemContextID: cfg.Theme.SystemContextID,
	}
	files := repository.NewFileRepository(cfg.Files.Root)
	observer := metrics.NewPrometheusObserver()

	hvp := service.NewHVPCSSService(store, observer)
	pluginFiles := service.NewPluginFileService(site.ThemeName, site.SystemContextID, hvp, service.NewDiskSettingFileServer(files), observer)
	override, _ := service.NewH5PRenderer(service.HostCapabilities{
		AlterStyles:  cfg.H5P.AlterStyles,
		AlterScripts: cfg.H5P.AlterScripts,
	}, store, site)
	scss := service.NewSCSSService(store, files, site)
	settings := service.NewSettingService(store, audit)

	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		logger.Warn("auth.secret not set, using a random key; tokens will not survive a restart")
		secret = []byte(uuid.New().String())
	}
	authSvc := service.NewAuthService(rdb, secret, service.AdminCredentials{
		Username: cfg.Auth.AdminUser,
		Password: cfg.Auth.AdminPassword,
	}, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	r := api.RegisterRoutes(
		api.NewThemeHandler(site.ThemeName, pluginFiles, override, scss),
		api.NewSettingHandler(settings, store),
		api.NewAuthHandler(authSvc),
		api.RouterOptions{
			Environment:       cfg.Server.Environment,
			Compression:       cfg.Server.Compression,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			RateLimiter:       rdb,
			Tokens:            authSvc,
		},
	)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment),
			zap.String("theme", site.ThemeName),
			zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

func initStore(cfg *config.Config, rdb *redis.Client, db *gorm.DB) (repository.SettingStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Driver {
	case "memory", "":
		return repository.NewMemoryStore(), noop, nil
	case "redis":
		return repository.NewRedisStore(rdb), noop, nil
	case "mysql":
		return repository.NewSQLStore(db), noop, nil
	case "etcd":
		cli, err := initEtcd(cfg.Etcd)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewEtcdStore(cli), func() { cli.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return rdb, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func initEtcd(cfg config.EtcdConfig) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return client, nil
}

func initDB(cfg config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	err = db.AutoMigrate(
		&model.ConfigPlugin{},
		&model.SettingAudit{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
