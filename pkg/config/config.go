package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	devSessionSecret = "dev_session_secret"
	devUploadsSecret = "dev_uploads_secret"
)

var (
	ErrWeakSessionSecret = errors.New("config: SESSION_SECRET must be set to a non-default value in production")
	ErrWeakUploadsSecret = errors.New("config: UPLOADS_SIGNING_SECRET must be set to a non-default value in production")
)

type Config struct {
	Env        string
	Port       int
	AppName    string
	SchoolName string
	Timezone   string
	Release    string

	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Session   SessionConfig
	Uploads   UploadsConfig
	Log       LogConfig
	Sentry    SentryConfig
	Metrics   MetricsConfig
	Dashboard DashboardConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis backed cache facade.
type CacheConfig struct {
	Enabled    bool
	Prefix     string
	DefaultTTL time.Duration
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Name   string
	Secret string
	MaxAge time.Duration
	Secure bool
}

// UploadsConfig controls where student photos are written and how links to them are signed.
type UploadsConfig struct {
	Dir           string
	SigningSecret string
	URLTTL        time.Duration
	MaxBytes      int64
	AllowedMIMEs  []string
}

type LogConfig struct {
	Level  string
	Format string
}

type SentryConfig struct {
	DSN string
}

// MetricsConfig protects the Prometheus endpoint. Token is the bearer a scraper sends.
type MetricsConfig struct {
	Token string
}

// DashboardConfig governs dashboard aggregate caching.
type DashboardConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.AppName = v.GetString("APP_NAME")
	cfg.SchoolName = v.GetString("SCHOOL_NAME")
	cfg.Timezone = v.GetString("TIMEZONE")
	cfg.Release = v.GetString("RELEASE")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		Prefix:     v.GetString("CACHE_PREFIX"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
	}

	cfg.Session = SessionConfig{
		Name:   v.GetString("SESSION_NAME"),
		Secret: v.GetString("SESSION_SECRET"),
		MaxAge: parseDuration(v.GetString("SESSION_MAX_AGE"), 8*time.Hour),
		Secure: v.GetBool("SESSION_SECURE"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 2 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:           v.GetString("UPLOADS_DIR"),
		SigningSecret: v.GetString("UPLOADS_SIGNING_SECRET"),
		URLTTL:        parseDuration(v.GetString("UPLOADS_URL_TTL"), 30*time.Minute),
		MaxBytes:      maxUpload,
		AllowedMIMEs:  splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sentry = SentryConfig{DSN: v.GetString("SENTRY_DSN")}
	cfg.Metrics = MetricsConfig{Token: strings.TrimSpace(v.GetString("METRICS_TOKEN"))}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	if err := cfg.checkSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkSecrets rejects blank or shipped development secrets in production.
func (c *Config) checkSecrets() error {
	if c.Env != EnvProduction {
		return nil
	}
	if secret := strings.TrimSpace(c.Session.Secret); secret == "" || secret == devSessionSecret {
		return ErrWeakSessionSecret
	}
	if secret := strings.TrimSpace(c.Uploads.SigningSecret); secret == "" || secret == devUploadsSecret {
		return ErrWeakUploadsSecret
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_NAME", "SMA Admin")
	v.SetDefault("SCHOOL_NAME", "SMA ADP")
	v.SetDefault("TIMEZONE", "Asia/Jakarta")
	v.SetDefault("RELEASE", "dev")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admin_panel_sma")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_PREFIX", "sma:")
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")

	v.SetDefault("SESSION_NAME", "sma_session")
	v.SetDefault("SESSION_SECRET", devSessionSecret)
	v.SetDefault("SESSION_MAX_AGE", "8h")
	v.SetDefault("SESSION_SECURE", false)

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_SIGNING_SECRET", devUploadsSecret)
	v.SetDefault("UPLOADS_URL_TTL", "30m")
	v.SetDefault("UPLOADS_MAX_BYTES", 2*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "image/jpeg,image/png")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("METRICS_TOKEN", "")
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
