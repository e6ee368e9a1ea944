// Package config builds the process-wide configuration once at startup.
//
// Values are layered in a fixed order: built-in defaults, then an optional
// YAML file, then environment variables, then command-line flags. The
// resulting Config is returned by value and treated as immutable.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Environment variable naming the YAML config file when --config is not given.
const ConfigFileEnv = "TASKDESK_CONFIG"

type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Storage   StorageConfig   `yaml:"storage"`
	Upload    UploadConfig    `yaml:"upload"`
	Admin     AdminConfig     `yaml:"admin"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite file
	URL    string `yaml:"url"`    // postgres DSN
}

// AuthConfig holds the token signing secret and hash cost shared by the
// token issuer and password hasher.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Backend       string        `yaml:"backend"` // "memory", "redis" or "off"
	Requests      int           `yaml:"requests"`
	Window        time.Duration `yaml:"window"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // "database" or "s3"
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3PublicURL string `yaml:"s3_public_url"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// AdminConfig seeds an administrator account at startup when Email is set.
type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Addr:            ":5000",
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "taskdesk.db",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 10,
		},
		RateLimit: RateLimitConfig{
			Backend:  "memory",
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Storage: StorageConfig{
			Backend:     "database",
			S3Region:    "us-east-1",
			S3PathStyle: true,
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
		},
		Admin: AdminConfig{
			Name: "Administrator",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the YAML file, the
// environment and args (without the program name), then validates it.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Defaults()

	fl, err := parseFlags(args)
	if err != nil {
		return Config{}, err
	}

	path := fl.configFile
	if path == "" {
		path = getenv(ConfigFileEnv)
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	fl.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret (JWT_SECRET) is required"))
	} else if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between 4 and 14, got %d", c.Auth.BcryptCost))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}

	switch c.RateLimit.Backend {
	case "off":
	case "memory", "redis":
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
		}
		if c.RateLimit.Backend == "redis" && c.RateLimit.RedisAddr == "" {
			errs = append(errs, errors.New("rate_limit.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown rate_limit.backend %q", c.RateLimit.Backend))
	}

	switch c.Storage.Backend {
	case "database":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("storage.s3_bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload.max_bytes must be positive"))
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 6 {
		errs = append(errs, errors.New("admin.password must be at least 6 characters when admin.email is set"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level into a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("invalid log.level %q", l.Level)
	}
	return lvl, nil
}
