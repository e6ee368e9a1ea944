package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/msomdec/taskdesk/internal/config"
	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/handler"
	"github.com/msomdec/taskdesk/internal/repository/postgres"
	"github.com/msomdec/taskdesk/internal/repository/sqlite"
	"github.com/msomdec/taskdesk/internal/service"
	"github.com/msomdec/taskdesk/internal/storage/s3"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "driver", cfg.Database.Driver)

	files, err := openFileStore(ctx, cfg.Storage, db)
	if err != nil {
		return err
	}

	limiter, err := openLimiter(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer limiter.Close()

	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(db.Users(), hasher, tokens)
	userService := service.NewUserService(db.Users(), hasher)
	uploadService := service.NewUploadService(db.Users(), files, cfg.Upload.MaxBytes)

	if cfg.Admin.Email != "" {
		created, err := userService.SeedAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			slog.Info("admin account created", "email", domain.NormalizeEmail(cfg.Admin.Email))
		}
	}

	router := handler.NewRouter(handler.Services{
		Auth:    authService,
		Users:   userService,
		Uploads: uploadService,
		Limiter: limiter,
		DB:      db,
		Metrics: handler.NewMetrics(),
	}, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts))
	case "both":
		return slog.New(slog.NewMultiHandler(
			slog.NewTextHandler(w, opts),
			slog.NewJSONHandler(os.Stderr, opts),
		))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (domain.Database, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
}

func openFileStore(ctx context.Context, cfg config.StorageConfig, db domain.Database) (domain.FileStore, error) {
	if cfg.Backend != "s3" {
		return db.Files(), nil
	}
	store, err := s3.New(ctx, s3.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
		PathStyle: cfg.S3PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("open s3 store: %w", err)
	}
	slog.Info("using s3 file storage", "bucket", cfg.S3Bucket)
	return store, nil
}

func openLimiter(ctx context.Context, cfg config.RateLimitConfig) (service.RateLimiter, error) {
	switch cfg.Backend {
	case "off":
		return service.NopLimiter{}, nil
	case "redis":
		rl, err := service.NewRedisLimiter(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.Requests, cfg.Window, slog.Default())
		if err != nil {
			slog.Warn("redis rate limiter unavailable, falling back to memory", "error", err)
			return service.NewWindowLimiter(cfg.Requests, cfg.Window), nil
		}
		return rl, nil
	default:
		return service.NewWindowLimiter(cfg.Requests, cfg.Window), nil
	}
}
