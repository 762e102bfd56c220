package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/ahcview/internal/adapters/http/api"
	"github.com/okian/ahcview/internal/adapters/http/site"
	"github.com/okian/ahcview/internal/adapters/http/swagger"
	"github.com/okian/ahcview/internal/adapters/repository"
	service "github.com/okian/ahcview/internal/app"
	"github.com/okian/ahcview/internal/config"
	"github.com/okian/ahcview/pkg/logger"
	"github.com/okian/ahcview/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal(ctx, "server failed", logger.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := service.New(
		service.WithStore(store),
		service.WithLogger(log.Named("service")),
		service.WithConcurrency(cfg.LookupConcurrency),
		service.WithSourceKind(cfg.Source),
	)

	if err := metrics.Register(collectors.NewBuildInfoCollector()); err != nil {
		log.Warn(ctx, "build info collector not registered", logger.Error(err))
	}
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("source", cfg.Source),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildStore opens the configured dataset source behind a shared cache.
func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	var base repository.Store
	switch cfg.Source {
	case "s3":
		s3store, err := repository.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		base = s3store
	default:
		base = repository.NewFileStore(cfg.DataDir)
	}
	return repository.NewCachedStore(base,
		repository.WithTTL(cfg.CacheTTL()),
		repository.WithCleanupInterval(cfg.CacheCleanup()),
	), nil
}

// newHandler assembles the router: API, docs and the embedded viewer page.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	router := api.NewRouter(api.RouterConfig{
		Name:           "ahcview",
		AllowedOrigins: cfg.AllowedOrigins,
		LogLevel:       logger.Level(),
		LogJSON:        cfg.LogFormat == "json",
	})

	api.NewServer(svc, svc, cfg.RequestTimeout()).Register(ctx, router)
	swagger.Register(ctx, router)
	site.Register(ctx, router)
	return router
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
