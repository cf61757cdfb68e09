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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/config"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/logging"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	_ "github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules/builtin" // Register built-in schemas
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logCloser := logging.Setup(cfg.Logging)
	defer logCloser.Close()

	slog.Info("configuration loaded", "config", cfg.String())

	if cfg.Rules.Dir != "" {
		n, err := rules.LoadDir(cfg.Rules.Dir)
		if err != nil {
			slog.Error("failed to load rule catalogs", "dir", cfg.Rules.Dir, "error", err)
			os.Exit(1)
		}
		slog.Info("rule catalogs loaded", "dir", cfg.Rules.Dir, "schemas", n)
	}
	slog.Info("schemas registered", "count", rules.Count(), "groups", rules.Groups())

	ctx := context.Background()
	var opts []core.Option

	if cfg.Database.Enabled() {
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		history := store.NewHistory(pool)
		if err := history.Migrate(ctx); err != nil {
			slog.Error("failed to migrate history schema", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithHistory(history))
	} else {
		slog.Info("DATABASE_URL not set, preview history disabled")
	}

	service := core.NewService(cfg, opts...)
	server := web.NewServer(service)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartHistoryPruner(jobCtx, core.RetentionConfig{
		RetentionDays: cfg.History.RetentionDays,
		Interval:      cfg.History.PruneInterval,
	})

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if st := service.LimiterStatus(); st.Active > 0 {
			slog.Info("waiting for previews to complete", "active", st.Active)
			if err := service.WaitForPreviews(shutdownCtx); err != nil {
				slog.Warn("previews did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

// openPool connects to Postgres with the configured pool limits.
func openPool(ctx context.Context, dbc config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbc.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(dbc.MaxConns)
	poolConfig.MinConns = int32(dbc.MinConns)
	poolConfig.MaxConnLifetime = dbc.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbc.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(dbc.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}
