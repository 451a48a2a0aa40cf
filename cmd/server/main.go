package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dgallion1/docshelf/internal/api"
	"github.com/dgallion1/docshelf/internal/config"
	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/metrics"
	"github.com/dgallion1/docshelf/internal/pipeline"
)

const shutdownGrace = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("docshelf exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn("dotenv not loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(reg)

	lib, closeBodies, err := library.NewFromConfig(cfg, log, library.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer closeBodies()

	// A failed first load is served as 503 until a reload or the watcher
	// picks up a fixed corpus.
	if _, err := lib.Load(ctx); err != nil {
		log.Error("initial corpus load failed", "error", err)
	}
	if cfg.WatchCorpus {
		go func() {
			if err := lib.Watch(ctx); err != nil {
				log.Error("corpus watcher stopped", "error", err)
			}
		}()
	}

	orch := pipeline.NewOrchestrator(cfg, lib, recorder, log)
	orch.Start(ctx)
	defer orch.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(lib, orch, metrics.HTTPHandler(reg), log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting docshelf",
			"port", cfg.Port,
			"corpus", cfg.CorpusPath,
			"records", lib.Catalog().Len(),
			"watch", cfg.WatchCorpus,
		)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
