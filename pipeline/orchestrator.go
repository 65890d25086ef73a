// Package pipeline moves discovered videos through
// scraped -> processed -> posted: watermark, publish to every target
// platform, then attach a smartlink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/discovery"
	"github.com/zefparis/pub/internal/metrics"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/processing"
	"github.com/zefparis/pub/publisher"
	"golang.org/x/sync/errgroup"
)

// VideoStore is the slice of the content store used by a run.
type VideoStore interface {
	ListVideosByStatus(ctx context.Context, status string, limit, maxAttempts int) ([]models.Video, error)
	TransitionVideo(ctx context.Context, id uint, from, to string, processedPath *string) error
	RecordVideoFailure(ctx context.Context, id uint, reason string) error
	CreatePost(ctx context.Context, p *models.Post) error
}

// SmartLinkCreator attaches an attribution link to a posted video.
type SmartLinkCreator interface {
	EnsureForVideo(ctx context.Context, videoID uint, targetURL, sourcePlatform string) (*models.SmartLink, bool, error)
}

// Collector discovers and persists candidate videos for a niche.
type Collector interface {
	Collect(ctx context.Context, topic string, limit int) []discovery.CandidateItem
	Persist(ctx context.Context, items []discovery.CandidateItem) int
}

// Options are the per-run knobs, read once from configuration.
type Options struct {
	VideosPerRun       int
	TargetPlatforms    []string
	AffiliateTargetURL string
	WatermarkText      string
	WatermarkWithNiche bool
	MediaDir           string
	Concurrency        int
	MaxAttempts        int
	DownloadTimeout    time.Duration
	TransformTimeout   time.Duration
	PublishTimeout     time.Duration
}

// Summary counts per-video outcomes of one run. A video whose smartlink could
// not be created is counted in both Posted and Failed.
type Summary struct {
	Selected     int `json:"selected"`
	Processed    int `json:"processed"`
	Posted       int `json:"posted"`
	Failed       int `json:"failed"`
	PostsCreated int `json:"posts_created"`
	LinksCreated int `json:"links_created"`
}

type Orchestrator struct {
	Store       VideoStore
	Collector   Collector
	Media       processing.MediaFetcher
	Watermarker processing.Watermarker
	Publishers  *publisher.Registry
	Links       SmartLinkCreator
	Titles      processing.TitleWriter
	Log         *logrus.Logger
	Options     Options
}

// Run processes one batch of scraped videos, oldest first. Only the
// selection query can fail the run; per-video failures land in the Summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	videos, err := o.Store.ListVideosByStatus(ctx, models.StatusScraped, o.Options.VideosPerRun, o.Options.MaxAttempts)
	if err != nil {
		return sum, fmt.Errorf("select scraped videos: %w", err)
	}
	sum.Selected = len(videos)
	o.Log.WithFields(logrus.Fields{"selected": len(videos)}).Info("Pipeline run started")

	limit := o.Options.Concurrency
	if limit < 1 {
		limit = 1
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i := range videos {
		v := videos[i]
		g.Go(func() error {
			res := o.processVideo(ctx, &v)
			mu.Lock()
			sum.add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	o.Log.WithFields(logrus.Fields{
		"selected":      sum.Selected,
		"processed":     sum.Processed,
		"posted":        sum.Posted,
		"failed":        sum.Failed,
		"posts_created": sum.PostsCreated,
		"links_created": sum.LinksCreated,
	}).Info("Pipeline run finished")
	return sum, nil
}

// RunNiche discovers up to limit items per source for niche, persists them
// and runs one batch.
func (o *Orchestrator) RunNiche(ctx context.Context, niche string, limit int) (Summary, error) {
	log := o.Log.WithFields(logrus.Fields{"niche": niche, "limit": limit})
	log.Info("Pipeline started")

	if o.Collector != nil {
		items := o.Collector.Collect(ctx, niche, limit)
		inserted := o.Collector.Persist(ctx, items)
		log.WithFields(logrus.Fields{"found": len(items), "inserted": inserted}).Info("Discovery finished")
	}

	sum, err := o.Run(ctx)
	if err != nil {
		log.WithError(err).Error("Pipeline failed")
		return sum, err
	}
	log.Info("Pipeline finished")
	return sum, nil
}

type videoResult struct {
	processed bool
	posted    bool
	failed    bool
	posts     int
	linked    bool
}

func (s *Summary) add(r videoResult) {
	if r.processed {
		s.Processed++
	}
	if r.posted {
		s.Posted++
	}
	if r.failed {
		s.Failed++
	}
	s.PostsCreated += r.posts
	if r.linked {
		s.LinksCreated++
	}
}

func (o *Orchestrator) processVideo(ctx context.Context, v *models.Video) (res videoResult) {
	log := o.Log.WithFields(logrus.Fields{
		"video_id":    v.ID,
		"platform":    v.Platform,
		"external_id": v.ExternalVideoID,
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Pipeline panicked for video")
			res.failed = true
		}
		outcome := "posted"
		if res.failed {
			outcome = "failed"
		}
		metrics.PipelineVideos.WithLabelValues(outcome).Inc()
	}()

	log.WithField("title", v.Title).Info("Processing video")

	processedPath, err := o.transform(ctx, v)
	if err != nil {
		log.WithError(err).Error("Transform failed; video left scraped")
		o.recordFailure(ctx, log, v, err)
		res.failed = true
		return res
	}
	if err := o.Store.TransitionVideo(ctx, v.ID, models.StatusScraped, models.StatusProcessed, &processedPath); err != nil {
		log.WithError(err).Error("Mark processed failed")
		o.recordFailure(ctx, log, v, err)
		res.failed = true
		return res
	}
	res.processed = true

	for _, platform := range o.Options.TargetPlatforms {
		if o.publish(ctx, log, v, platform, processedPath) {
			res.posts++
		}
	}
	if res.posts == 0 {
		log.Error("No platform accepted the video; left processed")
		res.failed = true
		return res
	}

	if err := o.Store.TransitionVideo(ctx, v.ID, models.StatusProcessed, models.StatusPosted, nil); err != nil {
		log.WithError(err).Error("Mark posted failed")
		res.failed = true
		return res
	}
	res.posted = true

	if o.Links != nil {
		link, created, err := o.Links.EnsureForVideo(ctx, v.ID, o.Options.AffiliateTargetURL, v.Platform)
		if err != nil {
			log.WithError(err).Error("SmartLink creation failed")
			res.failed = true
			return res
		}
		res.linked = created
		log = log.WithField("slug", link.Slug)
	}

	log.WithField("posts", res.posts).Info("Video processed & posted")
	return res
}

// transform downloads the source when a MediaFetcher is set, then watermarks it.
func (o *Orchestrator) transform(ctx context.Context, v *models.Video) (string, error) {
	source := filepath.Join(o.Options.MediaDir, mediaFileName(v.ExternalVideoID))

	if o.Media != nil {
		dctx, cancel := withTimeout(ctx, o.Options.DownloadTimeout)
		err := o.Media.Fetch(dctx, v.URL, source)
		cancel()
		if err != nil {
			return "", fmt.Errorf("download: %w", err)
		}
	}

	wctx, cancel := withTimeout(ctx, o.Options.TransformTimeout)
	defer cancel()
	out, err := o.Watermarker.Apply(wctx, source, o.overlayText(v))
	if err != nil {
		return "", fmt.Errorf("watermark: %w", err)
	}
	return out, nil
}

// recordFailure counts the attempt so the video yields to untried ones.
func (o *Orchestrator) recordFailure(ctx context.Context, log *logrus.Entry, v *models.Video, cause error) {
	if err := o.Store.RecordVideoFailure(ctx, v.ID, cause.Error()); err != nil {
		log.WithError(err).Warn("Record failed attempt failed")
	}
}

// mediaFileName keeps external ids from escaping the media directory.
func mediaFileName(externalID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, externalID)
	return name + ".mp4"
}

func (o *Orchestrator) overlayText(v *models.Video) string {
	text := strings.TrimSpace(o.Options.WatermarkText)
	if o.Options.WatermarkWithNiche && v.Niche != "" {
		if text == "" {
			return v.Niche
		}
		return text + " - " + v.Niche
	}
	return text
}

// publish reports whether a post row was written for platform.
func (o *Orchestrator) publish(ctx context.Context, log *logrus.Entry, v *models.Video, platform, mediaRef string) bool {
	log = log.WithField("target", platform)

	pub, err := o.Publishers.Get(platform)
	if err != nil {
		metrics.RecordPublish(platform, err)
		log.WithError(err).Error("Publish skipped")
		return false
	}

	title := o.postTitle(ctx, log, v, platform)

	pctx, cancel := withTimeout(ctx, o.Options.PublishTimeout)
	externalID, err := pub.Publish(pctx, mediaRef, title)
	cancel()
	metrics.RecordPublish(platform, err)
	if err != nil {
		log.WithError(err).Error("Publish failed")
		return false
	}

	now := time.Now()
	post := &models.Post{
		VideoID:        v.ID,
		PlatformTarget: platform,
		ExternalPostID: &externalID,
		PostedAt:       &now,
	}
	if err := o.Store.CreatePost(ctx, post); err != nil {
		log.WithError(err).WithField("external_post_id", externalID).Error("Record post failed")
		return false
	}
	log.WithField("external_post_id", externalID).Info("Published")
	return true
}

// postTitle rewrites the title when a TitleWriter is configured, falling
// back to the discovered title on any error.
func (o *Orchestrator) postTitle(ctx context.Context, log *logrus.Entry, v *models.Video, platform string) string {
	if o.Titles == nil {
		return v.Title
	}
	tctx, cancel := withTimeout(ctx, o.Options.PublishTimeout)
	defer cancel()

	title, err := o.Titles.Rewrite(tctx, v.Title, v.Niche, platform)
	if err != nil || title == "" {
		if err == nil {
			err = errors.New("empty title")
		}
		log.WithError(err).Warn("Title rewrite failed; using original")
		return v.Title
	}
	return title
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
