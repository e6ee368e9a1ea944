package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// applyEnv overlays environment variables onto cfg. Unset or empty
// variables leave the current value in place.
func applyEnv(cfg *Config, getenv func(string) string) error {
	e := envReader{getenv: getenv}

	e.str("APP_ENV", &cfg.Env)
	if port := getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	e.str("SERVER_ADDR", &cfg.Server.Addr)
	e.duration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.list("CORS_ORIGINS", &cfg.Server.CORSOrigins)

	e.str("DATABASE_DRIVER", &cfg.Database.Driver)
	e.str("DATABASE_PATH", &cfg.Database.Path)
	e.str("DATABASE_URL", &cfg.Database.URL)

	e.str("JWT_SECRET", &cfg.Auth.JWTSecret)
	e.duration("TOKEN_TTL", &cfg.Auth.TokenTTL)
	e.int("BCRYPT_COST", &cfg.Auth.BcryptCost)

	e.str("RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)
	e.int("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	e.duration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
	e.str("RATE_LIMIT_REDIS_ADDR", &cfg.RateLimit.RedisAddr)
	e.str("RATE_LIMIT_REDIS_PASSWORD", &cfg.RateLimit.RedisPassword)
	e.int("RATE_LIMIT_REDIS_DB", &cfg.RateLimit.RedisDB)

	e.str("STORAGE_BACKEND", &cfg.Storage.Backend)
	e.str("S3_BUCKET", &cfg.Storage.S3Bucket)
	e.str("S3_REGION", &cfg.Storage.S3Region)
	e.str("S3_ENDPOINT", &cfg.Storage.S3Endpoint)
	e.str("S3_ACCESS_KEY", &cfg.Storage.S3AccessKey)
	e.str("S3_SECRET_KEY", &cfg.Storage.S3SecretKey)
	e.str("S3_PUBLIC_URL", &cfg.Storage.S3PublicURL)
	e.bool("S3_PATH_STYLE", &cfg.Storage.S3PathStyle)

	e.int64("UPLOAD_MAX_BYTES", &cfg.Upload.MaxBytes)

	e.str("ADMIN_NAME", &cfg.Admin.Name)
	e.str("ADMIN_EMAIL", &cfg.Admin.Email)
	e.str("ADMIN_PASSWORD", &cfg.Admin.Password)

	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	return e.err
}

type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key string, dst *string) {
	if v := e.getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	v := e.getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func (e *envReader) int(key string, dst *int) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) int64(key string, dst *int64) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) bool(key string, dst *bool) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v := e.getenv(key)
	if v == "" || e.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = d
}
