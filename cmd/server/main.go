package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodbridge/tracegen/internal/api"
	"github.com/foodbridge/tracegen/internal/config"
	"github.com/foodbridge/tracegen/internal/engine"
	"github.com/foodbridge/tracegen/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/generator.yaml", "Path to generator YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	// ── Storage sink (optional) ───────────────────────────────────────────────
	var sink engine.Sink
	if cfg.Storage.DSN != "" {
		st, err := store.Open(cfg.Storage.DSN, logger)
		if err != nil {
			slog.Error("failed to open storage", "err", err)
			os.Exit(1)
		}
		sink = st
		slog.Info("storage sink enabled")
	} else {
		slog.Info("no storage DSN configured, datasets served inline only")
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, sink, cfg.Engine, logger)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("hot-reload skipped: config invalid", "err", err)
			return
		}
		slog.Info("config hot-reloaded", "version", newCfg.Version, "seed", newCfg.Seed)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(eng, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // stop job workers
	eng.Shutdown()
	slog.Info("goodbye")
}
