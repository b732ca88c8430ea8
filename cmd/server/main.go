// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"linkage/internal/audit"
	"linkage/internal/contact/handler"
	contactmetrics "linkage/internal/contact/metrics"
	"linkage/internal/contact/service"
	"linkage/internal/contact/store"
	memorystore "linkage/internal/contact/store/memory"
	postgresstore "linkage/internal/contact/store/postgres"
	redisstore "linkage/internal/contact/store/redis"
	"linkage/internal/platform/config"
	"linkage/internal/platform/httpserver"
	"linkage/internal/platform/logger"
	"linkage/internal/platform/metrics"
	platformredis "linkage/internal/platform/redis"
	httptransport "linkage/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contactStore, ping, cleanup, err := buildStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize contact store", "driver", cfg.StoreDriver, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	inbox := make(chan audit.Event, cfg.AuditBuffer)
	auditor := audit.NewPublisher(inbox)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), inbox, log)

	contacts := service.New(contactStore, auditor, contactmetrics.New())
	identify := handler.New(contacts, log, metrics.New(), cfg.RequestTimeout)
	router := httptransport.NewRouter(identify, log, ping)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting linkage", "addr", cfg.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// buildStore selects the persistence backend from config. Memory is the
// default so the service runs without external dependencies.
func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger) (store.Store, httptransport.Pinger, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgresstore.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		st := postgresstore.New(db)
		if err := st.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		return st, st.Ping, func() { db.Close() }, nil

	case config.DriverRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		if client == nil {
			return nil, nil, nil, errors.New("redis driver selected but LINKAGE_REDIS_URL is empty")
		}
		st := redisstore.New(client.Client)
		return st, st.Ping, func() { client.Close() }, nil

	case config.DriverMemory:
		log.Warn("using in-memory contact store; data will not survive restarts")
		return memorystore.New(), nil, func() {}, nil

	default:
		return nil, nil, nil, errors.New("unknown store driver: " + cfg.StoreDriver)
	}
}
