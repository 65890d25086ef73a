package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/internal/app"
	"github.com/zefparis/pub/internal/platform"
	"github.com/zefparis/pub/tasks"
	"github.com/zefparis/pub/worker"
)

func main() {
	rt, err := app.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start scheduler")
	}
	defer rt.Close()

	cfg := rt.Config
	rdb := platform.NewRedisClient(cfg, rt.Log)
	defer rdb.Close()
	queue := worker.NewProcessor(rdb, rt.Log)
	refresher := app.NewRefresher(rt.Store, rt.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Only run one scheduler instance, otherwise every run is queued twice.
	c := cron.New()

	_, err = c.AddFunc(fmt.Sprintf("@every %dm", cfg.PipelineEveryMinutes), func() {
		for _, niche := range cfg.Niches {
			task := tasks.PipelineRunPayload{Niche: niche, Limit: cfg.VideosPerNiche}
			if err := queue.Enqueue(ctx, tasks.QueuePipelineRun, task); err != nil {
				rt.Log.WithError(err).WithField("niche", niche).Error("Error queuing pipeline run")
				continue
			}
			rt.Log.WithField("niche", niche).Info("Queued pipeline run")
		}
	})
	if err != nil {
		rt.Log.WithError(err).Fatal("Error scheduling pipeline job")
	}

	_, err = c.AddFunc("@every "+cfg.MetricsRefreshInterval.String(), func() {
		if _, err := refresher.Refresh(ctx); err != nil {
			rt.Log.WithError(err).Error("Engagement refresh failed")
		}
	})
	if err != nil {
		rt.Log.WithError(err).Fatal("Error scheduling engagement refresh")
	}

	c.Start()
	rt.Log.WithFields(logrus.Fields{
		"niches":        cfg.Niches,
		"every_minutes": cfg.PipelineEveryMinutes,
	}).Info("Scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	rt.Log.Info("Scheduler stopped")
}
