package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               string         `yaml:"port"`
	Env                string         `yaml:"env"`
	LogLevel           string         `yaml:"log_level"`
	Database           DatabaseConfig `yaml:"database"`
	JWT                JWTConfig      `yaml:"jwt"`
	CORSOrigins        []string       `yaml:"cors_origins"`
	Redis              RedisConfig    `yaml:"redis"`
	RateLimitPerMinute int            `yaml:"rate_limit_per_minute"`
	Storage            StorageConfig  `yaml:"storage"`
	SystemActor        string         `yaml:"system_actor"`
	AdminEmails        []string       `yaml:"admin_emails"`
}

type DatabaseConfig struct {
	Driver        string        `yaml:"driver"`
	URL           string        `yaml:"url"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
	MaxIdleConns  int           `yaml:"max_idle_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
	AutoMigrate   bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	UploadDir        string `yaml:"upload_dir"`
	URLPrefix        string `yaml:"url_prefix"`
	S3Endpoint       string `yaml:"s3_endpoint"`
	S3Region         string `yaml:"s3_region"`
	S3Bucket         string `yaml:"s3_bucket"`
	S3AccessKeyID    string `yaml:"s3_access_key_id"`
	S3SecretKey      string `yaml:"s3_secret_access_key"`
	S3PublicURL      string `yaml:"s3_public_url"`
	S3ForcePathStyle bool   `yaml:"s3_force_path_style"`
}

func defaults() *Config {
	return &Config{
		Port:     "8080",
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfig{
			Driver:        "postgres",
			MaxOpenConns:  25,
			MaxIdleConns:  5,
			SlowThreshold: 200 * time.Millisecond,
			AutoMigrate:   true,
		},
		JWT: JWTConfig{
			Expiration:        15 * time.Minute,
			RefreshExpiration: 30 * 24 * time.Hour,
		},
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 20,
		Storage: StorageConfig{
			Driver:    "local",
			UploadDir: "./uploads",
			URLPrefix: "/uploads",
			S3Region:  "us-east-1",
		},
		SystemActor: "system",
	}
}

// Load reads .env files, then configs/config.<APP_ENV>.yaml (or CONFIG_FILE)
// when present, then applies environment variables on top.
func Load() (*Config, error) {
	LoadDotEnv()

	env := getEnv("APP_ENV", "local")
	path := getEnv("CONFIG_FILE", fmt.Sprintf("configs/config.%s.yaml", env))
	return LoadFrom(path)
}

// LoadFrom is Load without the .env step. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.SystemActor = getEnv("SYSTEM_ACTOR", c.SystemActor)
	c.AdminEmails = getEnvList("ADMIN_EMAILS", c.AdminEmails)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.URLPrefix = getEnv("UPLOAD_URL_PREFIX", c.Storage.URLPrefix)
	c.Storage.S3Endpoint = getEnv("S3_ENDPOINT", c.Storage.S3Endpoint)
	c.Storage.S3Region = getEnv("S3_REGION", c.Storage.S3Region)
	c.Storage.S3Bucket = getEnv("S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", c.Storage.S3AccessKeyID)
	c.Storage.S3SecretKey = getEnv("S3_SECRET_ACCESS_KEY", c.Storage.S3SecretKey)
	c.Storage.S3PublicURL = getEnv("S3_PUBLIC_URL", c.Storage.S3PublicURL)

	var err error
	if c.Database.MaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns); err != nil {
		return err
	}
	if c.Database.MaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns); err != nil {
		return err
	}
	if c.Database.AutoMigrate, err = getEnvBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute); err != nil {
		return err
	}
	if c.Storage.S3ForcePathStyle, err = getEnvBool("S3_FORCE_PATH_STYLE", c.Storage.S3ForcePathStyle); err != nil {
		return err
	}
	if c.JWT.Expiration, err = getEnvDuration("JWT_EXPIRATION", c.JWT.Expiration); err != nil {
		return err
	}
	if c.JWT.RefreshExpiration, err = getEnvDuration("REFRESH_EXPIRATION", c.JWT.RefreshExpiration); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.SystemActor, validation.Required),
		validation.Field(&c.RateLimitPerMinute, validation.Min(0)),
	); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.JWT.Validate(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	if c.JWT.Secret == "" && !c.IsDevelopment() {
		return errors.New("jwt: JWT_SECRET is required outside development")
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("postgres", "mysql", "sqlite")),
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
	)
}

func (c StorageConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In("local", "s3")),
		validation.Field(&c.UploadDir, validation.When(c.Driver == "local", validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Driver == "s3", validation.Required)),
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
