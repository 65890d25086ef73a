package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/internal/metrics"
	"github.com/zefparis/pub/models"
)

// MaxShortDuration is the upper bound (exclusive) for short-form content.
const MaxShortDuration = 60

// CandidateItem is a normalized search hit from one source.
type CandidateItem struct {
	Platform        string  `json:"platform"`
	ExternalID      string  `json:"video_id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	URL             string  `json:"url"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	Niche           string  `json:"niche"`
}

// Source searches one external platform for a topic.
type Source interface {
	Platform() string
	Search(ctx context.Context, topic string, limit int) ([]CandidateItem, error)
}

// VideoWriter is the part of the content store the collector persists through.
type VideoWriter interface {
	InsertVideoIfAbsent(ctx context.Context, v *models.Video) (bool, error)
}

type Collector struct {
	Sources     []Source
	Store       VideoWriter
	Log         *logrus.Logger
	MaxDuration int
	Timeout     time.Duration
}

func NewCollector(store VideoWriter, log *logrus.Logger, sources ...Source) *Collector {
	return &Collector{
		Sources:     sources,
		Store:       store,
		Log:         log,
		MaxDuration: MaxShortDuration,
		Timeout:     60 * time.Second,
	}
}

// Collect queries every source for topic, asking each for at most limit items.
// A failing source contributes nothing; Collect itself never fails. Results
// are filtered to short-form durations and deduplicated by URL, first seen wins.
func (c *Collector) Collect(ctx context.Context, topic string, limit int) []CandidateItem {
	if limit < 0 {
		limit = 0
	}
	c.Log.WithFields(logrus.Fields{"niche": topic, "limit": limit}).Info("Scraping trending for niche")

	results := make([][]CandidateItem, len(c.Sources))
	var wg sync.WaitGroup
	for i, src := range c.Sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = c.search(ctx, src, topic, limit)
		}(i, src)
	}
	wg.Wait()

	var all []CandidateItem
	for _, r := range results {
		all = append(all, r...)
	}
	items := Filter(all, c.maxDuration())
	for i := range items {
		items[i].Niche = topic
		metrics.DiscoveryItemsTotal.WithLabelValues(items[i].Platform).Inc()
	}
	return items
}

func (c *Collector) search(ctx context.Context, src Source, topic string, limit int) (items []CandidateItem) {
	entry := c.Log.WithFields(logrus.Fields{"platform": src.Platform(), "niche": topic})

	defer func() {
		if r := recover(); r != nil {
			entry.WithField("panic", r).Error("Discovery source panicked")
			metrics.DiscoverySourceFailures.WithLabelValues(src.Platform()).Inc()
			items = nil
		}
	}()

	if limit == 0 {
		return nil
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	items, err := src.Search(ctx, topic, limit)
	if err != nil {
		entry.WithError(err).Error("Discovery source failed")
		metrics.DiscoverySourceFailures.WithLabelValues(src.Platform()).Inc()
		return nil
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (c *Collector) maxDuration() int {
	if c.MaxDuration <= 0 || c.MaxDuration > MaxShortDuration {
		return MaxShortDuration
	}
	return c.MaxDuration
}

// Filter drops items with unknown duration, duration >= maxDuration or no
// URL, and removes repeated URLs keeping the first occurrence.
func Filter(items []CandidateItem, maxDuration int) []CandidateItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]CandidateItem, 0, len(items))
	for _, it := range items {
		if it.DurationSeconds <= 0 || it.DurationSeconds >= float64(maxDuration) {
			continue
		}
		if it.URL == "" || it.ExternalID == "" {
			continue
		}
		if _, dup := seen[it.URL]; dup {
			continue
		}
		seen[it.URL] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Persist upserts items as scraped videos. Existing (platform, id) pairs are
// left as they are; per-item failures are logged and skipped.
func (c *Collector) Persist(ctx context.Context, items []CandidateItem) int {
	inserted := 0
	for _, it := range items {
		v := &models.Video{
			Platform:        it.Platform,
			ExternalVideoID: it.ExternalID,
			Title:           it.Title,
			DurationSeconds: int(it.DurationSeconds),
			URL:             it.URL,
			Thumbnail:       it.Thumbnail,
			Niche:           it.Niche,
			Status:          models.StatusScraped,
		}
		ok, err := c.Store.InsertVideoIfAbsent(ctx, v)
		if err != nil {
			c.Log.WithError(err).WithFields(logrus.Fields{
				"platform": it.Platform,
				"video_id": it.ExternalID,
			}).Warn("Failed to insert video")
			continue
		}
		if ok {
			inserted++
		}
	}
	c.Log.WithFields(logrus.Fields{"count": len(items), "inserted": inserted}).Info("Persisted scraped")
	return inserted
}
