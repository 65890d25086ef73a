// Package app builds the components shared by the binaries from configuration.
package app

import (
	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/discovery"
	"github.com/zefparis/pub/engagement"
	"github.com/zefparis/pub/internal/config"
	"github.com/zefparis/pub/internal/logging"
	"github.com/zefparis/pub/internal/platform"
	"github.com/zefparis/pub/pipeline"
	"github.com/zefparis/pub/processing"
	"github.com/zefparis/pub/publisher"
	"github.com/zefparis/pub/store"
	"gorm.io/gorm"
)

// Runtime is the per-process state opened at start and released by Close.
type Runtime struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *gorm.DB
	Store  *store.Store

	hook *logging.DBHook
}

// Open loads configuration, builds the logger and connects to the database.
// Log entries at info and above are also persisted to the logs table.
func Open() (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel)

	db, err := platform.NewDBConnection(cfg, log)
	if err != nil {
		return nil, err
	}
	hook := logging.NewDBHook(db, 1000, logrus.InfoLevel)
	log.AddHook(hook)

	return &Runtime{Config: cfg, Log: log, DB: db, Store: store.New(db), hook: hook}, nil
}

// Close flushes buffered log entries and closes the database.
func (rt *Runtime) Close() {
	if rt.hook != nil {
		rt.hook.Close()
	}
	if err := platform.CloseDB(rt.DB); err != nil {
		rt.Log.WithError(err).Error("Failed to close database")
	}
}

func NewCollector(cfg *config.Config, st *store.Store, log *logrus.Logger) *discovery.Collector {
	c := discovery.NewCollector(st, log,
		discovery.NewYouTubeSource(cfg.YtDlpBin, cfg.ProxyURL),
		discovery.NewTikTokSource(cfg.YtDlpBin, cfg.ProxyURL),
	)
	c.MaxDuration = cfg.MaxDurationSeconds
	c.Timeout = cfg.DiscoveryTimeout
	return c
}

func NewOrchestrator(cfg *config.Config, st *store.Store, links pipeline.SmartLinkCreator, log *logrus.Logger) *pipeline.Orchestrator {
	x, y := cfg.WatermarkXY()
	o := &pipeline.Orchestrator{
		Store:       st,
		Collector:   NewCollector(cfg, st, log),
		Media:       processing.NewYtDlpFetcher(cfg.YtDlpBin, cfg.ProxyURL),
		Watermarker: processing.NewFFmpegWatermarker(cfg.FFmpegBin, cfg.WatermarkFontFile, cfg.WatermarkText, x, y),
		Publishers:  publisher.NewStubRegistry(),
		Links:       links,
		Log:         log,
		Options: pipeline.Options{
			VideosPerRun:       cfg.VideosPerRun,
			TargetPlatforms:    cfg.TargetPlatforms,
			AffiliateTargetURL: cfg.AffiliateTargetURL,
			WatermarkText:      cfg.WatermarkText,
			WatermarkWithNiche: cfg.WatermarkWithTag,
			MediaDir:           cfg.MediaDir,
			Concurrency:        cfg.PipelineConcurrency,
			MaxAttempts:        cfg.MaxVideoAttempts,
			DownloadTimeout:    cfg.DownloadTimeout,
			TransformTimeout:   cfg.TransformTimeout,
			PublishTimeout:     cfg.PublishTimeout,
		},
	}
	if tw := processing.NewOpenAITitleWriter(cfg.OpenAIAPIKey); tw != nil {
		o.Titles = tw
	}
	for _, p := range cfg.TargetPlatforms {
		if _, err := o.Publishers.Get(p); err != nil {
			log.WithField("platform", p).Warn("No publisher for target platform")
		}
	}
	return o
}

func NewRefresher(st *store.Store, log *logrus.Logger) *engagement.Refresher {
	return engagement.NewRefresher(st, log,
		engagement.NewStubFetcher(publisher.PlatformYouTube),
		engagement.NewStubFetcher(publisher.PlatformTikTok),
	)
}
