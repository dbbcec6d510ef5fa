package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort       string        `mapstructure:"HTTP_PORT"`
	DBHost         string        `mapstructure:"DB_HOST"`
	DBPort         string        `mapstructure:"DB_PORT"`
	DBUser         string        `mapstructure:"DB_USER"`
	DBPassword     string        `mapstructure:"DB_PASSWORD"`
	DBName         string        `mapstructure:"DB_NAME"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	CourseSvcUrl   string        `mapstructure:"COURSE_SVC_URL"`
	JWTAccessKey   string        `mapstructure:"JWT_ACCESS_SECRET"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"`
	LogMode        string        `mapstructure:"LOG_MODE"`
	StreamBlock    time.Duration `mapstructure:"ORDER_STREAM_BLOCK"`
	OtelEnabled    bool          `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint   string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	CourseCacheTTL time.Duration `mapstructure:"COURSE_CACHE_TTL"`
	StreamConsumer string        `mapstructure:"ORDER_STREAM_CONSUMER"`
	StreamClaim    time.Duration `mapstructure:"ORDER_STREAM_CLAIM_IDLE"`
}

var keys = []string{
	"HTTP_PORT",
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_PASSWORD",
	"DB_NAME",
	"REDIS_ADDR",
	"COURSE_SVC_URL",
	"JWT_ACCESS_SECRET",
	"ALLOWED_ORIGINS",
	"LOG_MODE",
	"ORDER_STREAM_BLOCK",
	"OTEL_ENABLED",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"COURSE_CACHE_TTL",
	"ORDER_STREAM_CONSUMER",
	"ORDER_STREAM_CLAIM_IDLE",
}

// LoadConfig reads app.env from path (if present) and lets the environment override it.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for _, k := range keys {
		if err = v.BindEnv(k); err != nil {
			return config, errors.Trace(err)
		}
	}

	v.SetDefault("HTTP_PORT", ":8084")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("ORDER_STREAM_BLOCK", 5*time.Second)
	v.SetDefault("COURSE_CACHE_TTL", time.Minute)
	v.SetDefault("ORDER_STREAM_CLAIM_IDLE", time.Minute)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, errors.Annotate(err, "read app.env")
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, errors.Trace(err)
	}

	// the consumer name must survive restarts for pending entries to be replayed
	if config.StreamConsumer == "" {
		if host, herr := os.Hostname(); herr == nil && host != "" {
			config.StreamConsumer = "learning-" + host
		}
	}

	return config, config.validate()
}

func (c Config) validate() error {
	var missing []string
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBUser == "" {
		missing = append(missing, "DB_USER")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.CourseSvcUrl == "" {
		missing = append(missing, "COURSE_SVC_URL")
	}
	if c.JWTAccessKey == "" {
		missing = append(missing, "JWT_ACCESS_SECRET")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Origins splits ALLOWED_ORIGINS on commas. Empty means allow all.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
