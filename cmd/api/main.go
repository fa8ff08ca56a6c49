package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apiConfig "spac_dashboard/pkg/api/config"
	"spac_dashboard/pkg/api/deal"
	"spac_dashboard/pkg/api/httputil"
	"spac_dashboard/pkg/api/scenario"
	"spac_dashboard/pkg/core/config"
	"spac_dashboard/pkg/core/logging"
	"spac_dashboard/pkg/core/observability"
	"spac_dashboard/pkg/core/store"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dealStore, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	runner := scenario.NewRunner(cfg.Engine, metrics)

	mux := http.NewServeMux()
	scenario.NewHandler(runner, logger).Register(mux)
	deal.NewHandler(dealStore, runner, logger).Register(mux)
	mux.HandleFunc("GET /api/config", apiConfig.NewHandler(cfg.Engine).HandleConfig)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httputil.CORS(cfg.Server.AllowedOrigin, httputil.Instrument(metrics, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.Int("workers", cfg.Engine.Workers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore uses Postgres when a database URL is configured and process memory otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (store.DealStore, func(), error) {
	if cfg.URL == "" {
		logger.Warn("DATABASE_URL not set, deals are kept in memory")
		return store.NewMemoryDealStore(), func() {}, nil
	}

	pool, err := store.NewPool(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("connected to postgres deal store")
	return store.NewPGDealStore(pool), pool.Close, nil
}
