package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"qctracker/infrastructure/audit"
	"qctracker/infrastructure/config"
	httpserver "qctracker/infrastructure/http"
	"qctracker/infrastructure/metrics"
	"qctracker/infrastructure/qcstate"
	"qctracker/infrastructure/shipments"
	"qctracker/infrastructure/sqlite"
	"qctracker/infrastructure/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := sqlite.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st := store.New(sqlite.NewKVBackend(db))
	state := qcstate.New(shipments.NewRepository(st), st,
		qcstate.WithSeed(cfg.SeedDemo),
		qcstate.WithAuditor(audit.NewService(db)),
		qcstate.WithRecorder(metrics.NewPrometheusRecorder(reg)),
	)
	if err := state.Load(ctx); err != nil {
		slog.Error("initial load failed; starting with an empty collection", slog.Any("err", err))
	}

	server := httpserver.NewServer(cfg.Addr, state, reg)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	log.Printf("qctracker listening on %s", cfg.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
