package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/internal/app"
	"github.com/zefparis/pub/internal/platform"
	"github.com/zefparis/pub/mailing"
	"github.com/zefparis/pub/smartlinks"
	"github.com/zefparis/pub/tasks"
	"github.com/zefparis/pub/worker"
)

func main() {
	rt, err := app.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start worker")
	}
	defer rt.Close()

	cfg := rt.Config
	rdb := platform.NewRedisClient(cfg, rt.Log)
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	links := smartlinks.NewService(rt.Store, nil, rt.Log)
	handlers := &worker.Handlers{
		Pipeline:     app.NewOrchestrator(cfg, rt.Store, links, rt.Log),
		Contacts:     mailing.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoListID, rt.Log),
		Log:          rt.Log,
		DefaultLimit: cfg.VideosPerNiche,
	}

	processor := worker.NewProcessor(rdb, rt.Log)
	handlers.Register(processor)

	rt.Log.Info("Worker started, waiting for queue tasks...")
	processor.Listen(ctx, tasks.All...)
}
