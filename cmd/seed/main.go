package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/internal/app"
	"github.com/zefparis/pub/internal/platform"
	"github.com/zefparis/pub/smartlinks"
)

// seed migrates the schema and runs one pipeline pass per configured niche.
func main() {
	rt, err := app.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start seed")
	}

	if err := platform.Migrate(rt.DB); err != nil {
		rt.Log.WithError(err).Error("Failed to migrate schema")
		rt.Close()
		os.Exit(1)
	}

	cfg := rt.Config
	links := smartlinks.NewService(rt.Store, nil, rt.Log)
	orch := app.NewOrchestrator(cfg, rt.Store, links, rt.Log)

	ctx := context.Background()
	failed := false
	for _, niche := range cfg.Niches {
		sum, err := orch.RunNiche(ctx, niche, cfg.VideosPerNiche)
		if err != nil {
			rt.Log.WithError(err).WithField("niche", niche).Error("Seed run failed")
			failed = true
			continue
		}
		rt.Log.WithFields(logrus.Fields{"niche": niche, "summary": sum}).Info("Seed run complete")
	}

	rt.Close()
	if failed {
		os.Exit(1)
	}
}
