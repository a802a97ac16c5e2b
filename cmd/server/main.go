package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsite/internal/api"
	"github.com/dgallion1/docsite/internal/catalog"
	"github.com/dgallion1/docsite/internal/config"
	"github.com/dgallion1/docsite/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manifests := staticManifests(log, cfg)
	if cfg.Watch {
		site, err := config.LoadSite(cfg.SiteFile)
		if err != nil {
			log.Error("invalid site configuration", "error", err)
			os.Exit(1)
		}
		builder := pipeline.NewBuilder(log, cfg.OutputDir, cfg.Concurrency)
		if _, err := builder.BuildAll(ctx, site); err != nil {
			log.Error("initial build failed", "error", err)
			os.Exit(1)
		}
		go pipeline.Watch(ctx, log, builder, site, cfg.WatchDebounce)
		manifests = builder.Manifests
	}

	srv := api.NewServer(cfg, log, manifests)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
		srv.Close()
	}()

	log.Info("starting docsite", "port", cfg.Port, "output", cfg.OutputDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// staticManifests serves the manifest written by the last build.
func staticManifests(log *slog.Logger, cfg config.Config) func() []catalog.VersionManifest {
	loaded, err := pipeline.ReadManifest(cfg.OutputDir)
	if err != nil {
		log.Warn("no built manifest found, run the build first", "error", err)
	}
	return func() []catalog.VersionManifest { return loaded }
}
