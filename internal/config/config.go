package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	DBDSN           string        `mapstructure:"DB_DSN"`
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	JWTIssuer       string        `mapstructure:"JWT_ISSUER"`
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	ListingCacheTTL time.Duration `mapstructure:"LISTING_CACHE_TTL"`
	NATSURL         string        `mapstructure:"NATS_URL"`
	OTLPEndpoint    string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogFormat       string        `mapstructure:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var (
	ErrMissingDSN       = errors.New("DB_DSN is not set")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
)

var keys = []string{
	"HTTP_ADDR", "DB_DSN", "JWT_SECRET", "JWT_ISSUER", "REDIS_ADDR", "LISTING_CACHE_TTL",
	"NATS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
}

// Load reads .env (if any), then config.env in the working directory, then the
// process environment, which wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LISTING_CACHE_TTL", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Unmarshal only sees keys viper knows about; AutomaticEnv alone is not enough.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

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

	if cfg.DBDSN == "" {
		return nil, ErrMissingDSN
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return &cfg, nil
}
