package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"ledgerguard/internal/audit"
	"ledgerguard/internal/authorize/ports"
	"ledgerguard/internal/keys"
	keymetrics "ledgerguard/internal/keys/metrics"
	"ledgerguard/internal/platform/config"
	"ledgerguard/internal/platform/redis"
	"ledgerguard/pkg/platform/circuit"
)

// auditPipeline is the publisher handed to the service and the hook that
// drains it once requests have stopped.
type auditPipeline struct {
	publisher ports.AuditPublisher
	drain     func()
}

// newAuditPipeline stores events on the request path when size is zero, and
// through a bounded queue and background worker otherwise.
func newAuditPipeline(ctx context.Context, size int, store audit.Store, log *slog.Logger) auditPipeline {
	if size == 0 {
		return auditPipeline{publisher: audit.NewPublisher(store), drain: func() {}}
	}

	queue := make(chan audit.Event, size)
	worker := audit.NewWorker(store, queue, func(e audit.Event, err error) {
		log.Error("failed to persist audit event", "action", e.Action, "request_id", e.RequestID, "error", err)
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(context.WithoutCancel(ctx))
	}()
	return auditPipeline{
		publisher: audit.NewQueuePublisher(queue),
		drain: func() {
			close(queue)
			<-done
		},
	}
}

// buildResolver picks the key source: remote resolver, database, then an
// in-memory set. A seed file is loaded into the local store. Redis caches
// whichever is chosen.
func buildResolver(ctx context.Context, cfg config.Server, db *sql.DB, rdb *redis.Client, log *slog.Logger) (keys.Resolver, error) {
	keyMetrics := keymetrics.New()

	var resolver keys.Resolver
	if cfg.Resolver.URL != "" {
		resolver = keys.NewHTTPResolver(cfg.Resolver.URL,
			keys.WithHTTPClient(&http.Client{Timeout: cfg.Authorization.VerifyTimeout}),
			keys.WithBreaker(circuit.New("key-resolver")),
			keys.WithLogger(log),
			keys.WithMetrics(keyMetrics),
		)
	} else {
		store, err := localKeyStore(ctx, cfg.Resolver.SeedFile, db, log)
		if err != nil {
			return nil, err
		}
		resolver = store
	}

	if rdb != nil {
		resolver = keys.NewCachingResolver(resolver, rdb.Client, cfg.Resolver.CacheTTL,
			keys.WithCacheLogger(log),
			keys.WithCacheMetrics(keyMetrics),
		)
	}
	return resolver, nil
}

func localKeyStore(ctx context.Context, seedFile string, db *sql.DB, log *slog.Logger) (keys.Store, error) {
	var store keys.Store
	if db != nil {
		store = keys.NewPostgresStore(db)
	} else {
		store = keys.NewMemoryResolver()
	}

	if seedFile == "" {
		if db == nil {
			log.Warn("no key source configured; every signature will fail to resolve")
		}
		return store, nil
	}
	n, err := keys.Seed(ctx, store, seedFile)
	if err != nil {
		return nil, fmt.Errorf("seed keys: %w", err)
	}
	log.InfoContext(ctx, "seeded verification keys", "count", n, "file", seedFile)
	return store, nil
}
