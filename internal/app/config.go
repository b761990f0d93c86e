package app

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/coursetrack-backend/internal/data/db"
	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/gcp"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	LogMode string `mapstructure:"LOG_MODE"`
	AppEnv  string `mapstructure:"APP_ENV"`
	Version string `mapstructure:"APP_VERSION"`

	JWTSecretKey string `mapstructure:"JWT_SECRET_KEY"`

	PostgresHost         string `mapstructure:"POSTGRES_HOST"`
	PostgresPort         string `mapstructure:"POSTGRES_PORT"`
	PostgresUser         string `mapstructure:"POSTGRES_USER"`
	PostgresPassword     string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresName         string `mapstructure:"POSTGRES_NAME"`
	PostgresSSLMode      string `mapstructure:"POSTGRES_SSLMODE"`
	PostgresMaxOpenConns int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS"`
	AutoMigrate          bool   `mapstructure:"DB_AUTO_MIGRATE"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisChannel       string `mapstructure:"REDIS_CHANNEL"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	MetricsAddr    string `mapstructure:"METRICS_ADDR"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	VideoBucket              string `mapstructure:"VIDEO_BUCKET"`
	ObjectStorageMode        string `mapstructure:"OBJECT_STORAGE_MODE"`
	StorageEmulatorHost      string `mapstructure:"STORAGE_EMULATOR_HOST"`
	ObjectStoragePublicBase  string `mapstructure:"OBJECT_STORAGE_PUBLIC_BASE_URL"`
	VideoSignedURLs          bool   `mapstructure:"VIDEO_SIGNED_URLS"`
	VideoSignedURLTTLSeconds int    `mapstructure:"VIDEO_SIGNED_URL_TTL_SECONDS"`
	GoogleCredentials        string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`

	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string  `mapstructure:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

var configDefaults = map[string]any{
	"PORT":        "8080",
	"LOG_MODE":    "development",
	"APP_ENV":     "development",
	"APP_VERSION": "dev",

	"JWT_SECRET_KEY": "",

	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "postgres",
	"POSTGRES_PASSWORD":       "",
	"POSTGRES_NAME":           "coursetrack",
	"POSTGRES_SSLMODE":        "disable",
	"POSTGRES_MAX_OPEN_CONNS": 25,
	"POSTGRES_MAX_IDLE_CONNS": 10,
	"DB_AUTO_MIGRATE":         true,

	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_CHANNEL":         "coursetrack.progress",
	"RATE_LIMIT_PER_MINUTE": 120,

	"METRICS_ENABLED": false,
	"METRICS_ADDR":    ":9090",

	"CORS_ALLOWED_ORIGINS": "",

	"VIDEO_BUCKET":                   "",
	"OBJECT_STORAGE_MODE":            "",
	"STORAGE_EMULATOR_HOST":          "",
	"OBJECT_STORAGE_PUBLIC_BASE_URL": "",
	"VIDEO_SIGNED_URLS":              false,
	"VIDEO_SIGNED_URL_TTL_SECONDS":   900,
	"GOOGLE_APPLICATION_CREDENTIALS": "",

	"OTEL_ENABLED":                false,
	"OTEL_SERVICE_NAME":           "coursetrack",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_HEADERS":  "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"OTEL_SAMPLE_RATIO":           1.0,
}

// LoadConfig reads app.env from path when present, then the environment.
// Environment variables win over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for k, val := range configDefaults {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return Config{}, errors.New("JWT_SECRET_KEY is required")
	}
	return cfg, nil
}

func (c Config) Log(log *logger.Logger) {
	log.Debug("config loaded",
		"port", c.Port,
		"app_env", c.AppEnv,
		"postgres_host", c.PostgresHost,
		"postgres_name", c.PostgresName,
		"redis_enabled", c.RedisAddr != "",
		"rate_limit_per_minute", c.RateLimitPerMinute,
		"metrics_enabled", c.MetricsEnabled,
		"video_bucket", c.VideoBucket,
		"video_signed_urls", c.VideoSignedURLs,
		"otel_enabled", c.OtelEnabled,
	)
}

func (c Config) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		Name:            c.PostgresName,
		SSLMode:         c.PostgresSSLMode,
		MaxOpenConns:    c.PostgresMaxOpenConns,
		MaxIdleConns:    c.PostgresMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func (c Config) VideoURLs() gcp.VideoURLConfig {
	return gcp.VideoURLConfig{
		Bucket:        c.VideoBucket,
		Mode:          c.ObjectStorageMode,
		EmulatorHost:  c.StorageEmulatorHost,
		PublicBaseURL: c.ObjectStoragePublicBase,
		SignedURLs:    c.VideoSignedURLs,
		SignedURLTTL:  time.Duration(c.VideoSignedURLTTLSeconds) * time.Second,
		Credentials:   c.GoogleCredentials,
	}
}

func (c Config) Otel() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.OtelEnabled,
		ServiceName: c.OtelServiceName,
		Environment: c.AppEnv,
		Version:     c.Version,
		Endpoint:    c.OtelEndpoint,
		Headers:     c.OtelHeaders,
		Insecure:    c.OtelInsecure,
		SampleRatio: c.OtelSampleRatio,
	}
}

func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
