package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	H5P       H5PConfig       `mapstructure:"h5p"`
	Store     StoreConfig     `mapstructure:"store"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Files     FilesConfig     `mapstructure:"files"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

type ServerConfig struct {
	Environment string `mapstructure:"environment"`
	Port        string `mapstructure:"port"`
	// Compression wraps responses in gzip when the client accepts it.
	Compression bool `mapstructure:"compression"`
}

type ThemeConfig struct {
	Name            string `mapstructure:"name"`
	WWWRoot         string `mapstructure:"wwwroot"`
	HTTPSWWWRoot    string `mapstructure:"httpswwwroot"`
	SystemContextID int64  `mapstructure:"system_context_id"`
}

// H5PConfig declares which alter hooks the host renderer exposes.
type H5PConfig struct {
	AlterStyles  bool `mapstructure:"alter_styles"`
	AlterScripts bool `mapstructure:"alter_scripts"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory, redis, etcd, mysql
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type FilesConfig struct {
	Root string `mapstructure:"root"`
}

type AuthConfig struct {
	Secret          string        `mapstructure:"secret"`
	AdminUser       string        `mapstructure:"admin_user"`
	AdminPassword   string        `mapstructure:"admin_password"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.compression", false)

	v.SetDefault("theme.name", "moove")
	v.SetDefault("theme.wwwroot", "http://localhost:8080")
	v.SetDefault("theme.system_context_id", 1)

	v.SetDefault("h5p.alter_styles", true)
	v.SetDefault("h5p.alter_scripts", true)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("etcd.endpoints", []string{"127.0.0.1:2379"})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("files.root", "./data/files")

	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)

	v.SetDefault("ratelimit.requests_per_second", 5)
}

// Load reads config.yaml from the working directory or ./config and
// overlays MOOVE_* environment variables (MOOVE_THEME_NAME, ...).
func Load() *Config {
	cfg, err := load(viper.New(), ".", "./config")
	if err != nil {
		panic(err)
	}
	return cfg
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("MOOVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Theme.HTTPSWWWRoot == "" {
		cfg.Theme.HTTPSWWWRoot = cfg.Theme.WWWRoot
	}
	cfg.Theme.WWWRoot = strings.TrimRight(cfg.Theme.WWWRoot, "/")
	cfg.Theme.HTTPSWWWRoot = strings.TrimRight(cfg.Theme.HTTPSWWWRoot, "/")

	return &cfg, nil
}
