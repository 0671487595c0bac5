package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samzcoder/hotel-control/internal/config"
	"github.com/samzcoder/hotel-control/internal/db"
	httpx "github.com/samzcoder/hotel-control/internal/http"
	"github.com/samzcoder/hotel-control/internal/http/handlers"
	"github.com/samzcoder/hotel-control/internal/observability"
	"github.com/samzcoder/hotel-control/internal/repo/memory"
	"github.com/samzcoder/hotel-control/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	rootCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(rootCtx, cfg.ServiceName, cfg.OTelEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var store handlers.RegistrationStore
	var ping func(ctx context.Context) error

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		store = memory.NewRegistrationsRepo()

	case config.StoreDriverPostgres:
		pool, err := db.NewPool(rootCtx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		store = postgres.NewRegistrationsRepo(pool, log, prom)
		ping = pool.Ping

	default:
		log.Error("unknown store driver", "driver", cfg.StoreDriver)
		os.Exit(1)
	}

	// set up routers with the log
	router := httpx.NewRouter(cfg, httpx.Deps{
		Log:     log,
		Store:   store,
		Ping:    ping,
		Prom:    prom,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver, "strict_errors", cfg.StrictErrors)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	select {
	case <-rootCtx.Done():
		log.Info("server shutting down")
	case err := <-serverErr:
		log.Error("server failed", "err", err)
	}

	ctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)

	if err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	// deferred pool.Close runs after in-flight requests have drained
	log.Info("shutdown complete")
}
