package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/olympics/internal/config"
	"github.com/JonMunkholm/olympics/internal/core"
	"github.com/JonMunkholm/olympics/internal/logging"
	"github.com/JonMunkholm/olympics/internal/metrics"
	"github.com/JonMunkholm/olympics/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	source, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to create dataset source", "source", cfg.Dataset.Source, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	placement, _ := core.ParsePlacement(cfg.Notify.Placement)

	collector := metrics.New()
	hub := core.NewNotificationHub(cfg.Notify.Buffer)
	store := core.NewStore(source,
		core.Notifiers{core.LogNotifier{}, hub},
		core.WithRecorder(collector),
		core.WithNotificationStyle(cfg.Notify.Duration, placement),
	)

	server := web.NewServer(cfg, store, hub, collector)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)

	if cfg.Dataset.LoadOnStart {
		go func() {
			// Failures are already classified, published and notified.
			_ = store.Load(jobCtx)
		}()
	}

	go store.StartReloadScheduler(jobCtx, cfg.Dataset.ReloadInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newSource builds the configured dataset source. The returned close
// function releases any resources the source holds.
func newSource(ctx context.Context, cfg *config.Config) (core.Source, func(), error) {
	switch cfg.Dataset.Source {
	case config.SourceHTTP:
		return core.NewHTTPSource(cfg.Dataset.URL, cfg.Dataset.FetchTimeout), func() {}, nil

	case config.SourceFile:
		return core.NewFileSource(cfg.Dataset.Path), func() {}, nil

	case config.SourcePostgres:
		pool, err := newPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return core.NewPostgresSource(pool, cfg.Dataset.Table), pool.Close, nil
	}
	return nil, nil, errors.New("unknown dataset source " + cfg.Dataset.Source)
}

// newPool connects to PostgreSQL. The ping only logs a warning: an
// unreachable database surfaces through the first load like any other
// unreachable source.
func newPool(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		slog.Warn("database not reachable yet", "error", err)
	} else if u, err := url.Parse(dbCfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
