package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/subosito/gotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/printdesk.db"`
	PGDSN       string `envconfig:"PG_DSN"`

	// RedisAddr enables the report cache and the job queue. Empty disables both.
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisStorePrefix string        `envconfig:"REDIS_STORE_PREFIX" default:"printdesk"`
	CacheTTL         time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	BlobDriver      string `envconfig:"BLOB_DRIVER" default:"fs"`
	BlobFSRoot      string `envconfig:"BLOB_FS_ROOT" default:"data/blobs"`
	BlobS3Bucket    string `envconfig:"BLOB_S3_BUCKET"`
	BlobS3Region    string `envconfig:"BLOB_S3_REGION"`
	BlobS3Endpoint  string `envconfig:"BLOB_S3_ENDPOINT"`
	BlobS3PathStyle bool   `envconfig:"BLOB_S3_PATH_STYLE" default:"false"`

	BackupCron      string `envconfig:"BACKUP_CRON" default:"0 2 * * *"`
	LowStockCron    string `envconfig:"LOW_STOCK_CRON" default:"0 7 * * *"`
	BackupRetention int    `envconfig:"BACKUP_RETENTION" default:"14"`

	AdminTokenHash     string `envconfig:"ADMIN_TOKEN_HASH"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables. A .env file in
// the working directory is applied first without overriding variables that
// are already set.
func LoadConfig() (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the rules that span several keys.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.BlobDriver = strings.ToLower(strings.TrimSpace(c.BlobDriver))
	var errs []error
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StorePostgres:
		if c.PGDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required for the postgres store"))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.BlobDriver {
	case "fs", "memory":
	case "s3":
		if c.BlobS3Bucket == "" {
			errs = append(errs, errors.New("BLOB_S3_BUCKET is required for the s3 blob driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver))
	}
	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	return errors.Join(errs...)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// QueueEnabled reports whether Redis is configured for jobs and caching.
func (c *Config) QueueEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
