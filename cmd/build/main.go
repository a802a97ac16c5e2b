package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dgallion1/docsite/internal/config"
	"github.com/dgallion1/docsite/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	site, err := config.LoadSite(cfg.SiteFile)
	if err != nil {
		log.Error("invalid site configuration", "error", err)
		os.Exit(1)
	}

	builder := pipeline.NewBuilder(log, cfg.OutputDir, cfg.Concurrency)
	results, err := builder.BuildAll(context.Background(), site)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		log.Info("built", "version", r.ID, "documents", r.Succeeded, "failed", r.Failed)
	}
	if err != nil {
		log.Error("build failed", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		log.Warn("some versions were skipped", "skipped", failed)
	}
}
