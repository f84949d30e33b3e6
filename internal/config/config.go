package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	APNs      APNsConfig      `yaml:"apns"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Debug exposes internal error messages in 500 responses.
	Debug         bool   `yaml:"debug"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // postgres | memory
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// StorageConfig selects and configures the object storage backend
type StorageConfig struct {
	Type  string             `yaml:"type"` // s3 | minio | local
	S3    S3Config           `yaml:"s3"`
	Minio MinioConfig        `yaml:"minio"`
	Local LocalStorageConfig `yaml:"local"`
}

// S3Config holds AWS S3 (or S3-compatible) configuration
type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
	// PublicURL overrides the base of returned object URLs, e.g. a CDN host.
	PublicURL    string `yaml:"public_url"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// MinioConfig holds MinIO configuration
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

// LocalStorageConfig holds local filesystem storage configuration
type LocalStorageConfig struct {
	Path      string `yaml:"path"`
	PublicURL string `yaml:"public_url"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// CacheConfig configures the search result cache
type CacheConfig struct {
	Type          string        `yaml:"type"` // none | memory | redis
	TTL           time.Duration `yaml:"ttl"`
	MaxItems      int64         `yaml:"max_items"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

// RateLimitConfig configures per-client limits on the auth endpoints
type RateLimitConfig struct {
	AuthRPS   float64 `yaml:"auth_rps"`
	AuthBurst int     `yaml:"auth_burst"`
}

// APNsConfig holds Apple push configuration. Push is disabled when KeyFile is empty.
type APNsConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// Load reads configuration from a YAML file. A .env file next to the working
// directory is loaded first and ${VAR} references in the YAML are expanded.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Server.AllowedOrigin == "" {
		c.Server.AllowedOrigin = "*"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Local.Path == "" {
		c.Storage.Local.Path = "./data/media"
	}
	if c.Storage.Local.PublicURL == "" {
		c.Storage.Local.PublicURL = fmt.Sprintf("http://localhost:%d/media", c.Server.Port)
	}

	if c.JWT.TTL == 0 {
		c.JWT.TTL = 30 * 24 * time.Hour
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "none"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Cache.MaxItems == 0 {
		c.Cache.MaxItems = 10000
	}

	if c.RateLimit.AuthRPS == 0 {
		c.RateLimit.AuthRPS = 1
	}
	if c.RateLimit.AuthBurst == 0 {
		c.RateLimit.AuthBurst = 10
	}
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database.host and database.dbname are required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	switch c.Storage.Type {
	case "s3":
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Region == "" {
			return errors.New("storage.s3.bucket and storage.s3.region are required")
		}
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return errors.New("storage.minio.endpoint and storage.minio.bucket are required")
		}
	case "local":
	default:
		return fmt.Errorf("unknown storage.type %q", c.Storage.Type)
	}

	switch c.Cache.Type {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache.type %q", c.Cache.Type)
	}

	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}
