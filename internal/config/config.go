package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port                  int      `mapstructure:"port"`
	CORSAllowedOrigins    []string `mapstructure:"cors_allowed_origins"`
	LoginRateLimitPerHour int      `mapstructure:"login_rate_limit_per_hour"`
}

// LogConfig 控制 slog 的输出格式与级别。
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port for go-redis and asynq.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
// An empty Endpoint disables resource export.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	PublicEndpoint   string `mapstructure:"public_endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	BucketLookup     string `mapstructure:"bucket_lookup"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// Enabled reports whether object storage has been configured.
func (m MinIOConfig) Enabled() bool {
	return strings.TrimSpace(m.Endpoint) != ""
}

// JWTConfig 描述访问令牌的签名密钥与有效期。
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// OpenAIConfig points at an OpenAI-compatible chat completion API.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	ChatModel       string        `mapstructure:"chat_model"`
	Temperature     float64       `mapstructure:"temperature"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Load reads configuration from environment variables (with optional defaults).
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	return load(validate)
}

// LoadStores is Load for tools that only touch the database and object storage;
// JWT, Redis and OpenAI settings are not required.
func LoadStores() (*Config, error) {
	return load(func(cfg Config) error {
		if err := validateDatabase(cfg.Database); err != nil {
			return err
		}
		return validateMinIO(cfg.MinIO)
	})
}

// LoadWorker is Load for the background worker, which needs the database and Redis only.
func LoadWorker() (*Config, error) {
	return load(func(cfg Config) error {
		if err := validateDatabase(cfg.Database); err != nil {
			return err
		}
		return validateRedis(cfg.Redis)
	})
}

func load(check func(Config) error) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.API.CORSAllowedOrigins = splitOrigins(cfg.API.CORSAllowedOrigins)

	if err := check(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// NewLogger builds the process logger described by LogConfig.
func (l LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.cors_allowed_origins", []string{"*"})
	v.SetDefault("api.login_rate_limit_per_hour", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "brainboost")
	v.SetDefault("database.user", "brainboost")
	v.SetDefault("database.password", "brainboost")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "brainboost-exports")
	v.SetDefault("minio.bucket_lookup", "auto")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("jwt.ttl", 30*24*time.Hour)
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.completion_model", "gpt-4o-mini")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.timeout", 60*time.Second)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                      "API_PORT",
		"api.cors_allowed_origins":      "CORS_ALLOWED_ORIGINS",
		"api.login_rate_limit_per_hour": "LOGIN_RATE_LIMIT_PER_HOUR",
		"log.level":                     "LOG_LEVEL",
		"log.format":                    "LOG_FORMAT",
		"database.host":                 "DATABASE_HOST",
		"database.port":                 "DATABASE_PORT",
		"database.name":                 "POSTGRES_DB",
		"database.user":                 "POSTGRES_USER",
		"database.password":             "POSTGRES_PASSWORD",
		"database.sslmode":              "DATABASE_SSLMODE",
		"database.log_level":            "DATABASE_LOG_LEVEL",
		"redis.host":                    "REDIS_HOST",
		"redis.port":                    "REDIS_PORT",
		"minio.endpoint":                "MINIO_ENDPOINT",
		"minio.public_endpoint":         "MINIO_PUBLIC_ENDPOINT",
		"minio.access_key_id":           "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":       "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":                 "MINIO_USE_SSL",
		"minio.bucket":                  "MINIO_BUCKET",
		"minio.region":                  "MINIO_REGION",
		"minio.bucket_lookup":           "MINIO_BUCKET_LOOKUP",
		"minio.auto_create_bucket":      "MINIO_AUTO_CREATE_BUCKET",
		"jwt.secret":                    "JWT_SECRET",
		"jwt.ttl":                       "JWT_TTL",
		"openai.api_key":                "OPENAI_API_KEY",
		"openai.base_url":               "OPENAI_BASE_URL",
		"openai.completion_model":       "OPENAI_COMPLETION_MODEL",
		"openai.chat_model":             "OPENAI_CHAT_MODEL",
		"openai.temperature":            "OPENAI_TEMPERATURE",
		"openai.timeout":                "OPENAI_TIMEOUT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

// splitOrigins accepts both a real list and a single comma separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if err := validateDatabase(cfg.Database); err != nil {
		return err
	}
	if err := validateRedis(cfg.Redis); err != nil {
		return err
	}
	if len(cfg.JWT.Secret) < 16 {
		return errors.New("jwt secret must be at least 16 characters")
	}
	if cfg.JWT.TTL <= 0 {
		return errors.New("jwt ttl must be positive")
	}
	if cfg.OpenAI.APIKey == "" {
		return errors.New("openai api key is required")
	}
	if cfg.OpenAI.Timeout <= 0 {
		return errors.New("openai timeout must be positive")
	}
	return validateMinIO(cfg.MinIO)
}

func validateDatabase(db DatabaseConfig) error {
	switch {
	case db.Host == "":
		return errors.New("database host is required")
	case db.Port <= 0:
		return errors.New("database port must be positive")
	case db.Name == "":
		return errors.New("database name is required")
	case db.User == "":
		return errors.New("database user is required")
	case db.Password == "":
		return errors.New("database password is required")
	case db.SSLMode == "":
		return errors.New("database sslmode is required")
	}
	return nil
}

func validateRedis(r RedisConfig) error {
	switch {
	case r.Host == "":
		return errors.New("redis host is required")
	case r.Port <= 0:
		return errors.New("redis port must be positive")
	}
	return nil
}

func validateMinIO(m MinIOConfig) error {
	if !m.Enabled() {
		return nil
	}
	switch {
	case m.AccessKeyID == "":
		return errors.New("minio access key id is required")
	case m.SecretAccessKey == "":
		return errors.New("minio secret access key is required")
	case m.Bucket == "":
		return errors.New("minio bucket is required")
	}
	return nil
}
