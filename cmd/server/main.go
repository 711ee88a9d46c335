package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"ledgerguard/internal/audit"
	"ledgerguard/internal/authorize"
	"ledgerguard/internal/authorize/adapters"
	authhandler "ledgerguard/internal/authorize/handler"
	authmetrics "ledgerguard/internal/authorize/metrics"
	"ledgerguard/internal/platform/config"
	"ledgerguard/internal/platform/httpserver"
	"ledgerguard/internal/platform/logger"
	"ledgerguard/internal/platform/metrics"
	"ledgerguard/internal/platform/postgres"
	"ledgerguard/internal/platform/redis"
	"ledgerguard/internal/signature"
	"ledgerguard/pkg/platform/httputil"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	resolver, err := buildResolver(ctx, cfg, db, rdb, log)
	if err != nil {
		return err
	}
	provider := signature.NewProvider(resolver,
		signature.WithConcurrency(cfg.Authorization.VerifyConcurrency),
		signature.WithLogger(log),
	)

	authMetrics := authmetrics.New()
	engine := authorize.NewEngine(
		adapters.NewSignatureVerifier(provider, authMetrics),
		authorize.WithUnfilteredMode(cfg.Authorization.UnfilteredPolicy),
	)

	var auditStore audit.Store = audit.NewLogStore(log)
	if db != nil {
		auditStore = audit.NewPostgresStore(db)
	}
	auditing := newAuditPipeline(ctx, cfg.Audit.QueueSize, auditStore, log)

	service := authorize.NewService(engine,
		authorize.WithLogger(log),
		authorize.WithMetrics(authMetrics),
		authorize.WithAuditPublisher(auditing.publisher),
		authorize.WithTimeout(cfg.Authorization.VerifyTimeout),
	)

	router := newRouter(authhandler.New(service, log), metrics.New(), healthHandler(db, rdb))
	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting ledgerguard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Requests are drained; let the worker flush what is queued.
	auditing.drain()
	return nil
}

func healthHandler(db *sql.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["database"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				status["redis"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
