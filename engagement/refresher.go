// Package engagement refreshes view, like and comment counters of published posts.
package engagement

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/models"
)

const defaultBatchSize = 200

// Delta is the engagement gained since the previous poll.
type Delta struct {
	Views    int
	Likes    int
	Comments int
}

// StatsFetcher polls one platform for a post's engagement.
type StatsFetcher interface {
	Platform() string
	Fetch(ctx context.Context, externalPostID string) (Delta, error)
}

// PostStore is the slice of the content store used by the refresher.
type PostStore interface {
	PublishedPosts(ctx context.Context, limit int) ([]models.Post, error)
	AddEngagement(ctx context.Context, postID uint, views, likes, comments int) error
}

type Refresher struct {
	Store     PostStore
	Fetchers  map[string]StatsFetcher
	Log       *logrus.Logger
	BatchSize int
}

func NewRefresher(s PostStore, log *logrus.Logger, fetchers ...StatsFetcher) *Refresher {
	r := &Refresher{
		Store:     s,
		Fetchers:  make(map[string]StatsFetcher, len(fetchers)),
		Log:       log,
		BatchSize: defaultBatchSize,
	}
	for _, f := range fetchers {
		r.Fetchers[f.Platform()] = f
	}
	return r
}

// Refresh polls the least recently updated posts and applies their deltas.
// Per-post failures are logged and skipped.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	posts, err := r.Store.PublishedPosts(ctx, r.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list published posts: %w", err)
	}

	updated := 0
	for _, p := range posts {
		fetcher, ok := r.Fetchers[p.PlatformTarget]
		if !ok || p.ExternalPostID == nil {
			continue
		}
		log := r.Log.WithFields(logrus.Fields{"post_id": p.ID, "platform": p.PlatformTarget})

		d, err := fetcher.Fetch(ctx, *p.ExternalPostID)
		if err != nil {
			log.WithError(err).Warn("Engagement fetch failed")
			continue
		}
		if err := r.Store.AddEngagement(ctx, p.ID, d.Views, d.Likes, d.Comments); err != nil {
			log.WithError(err).Warn("Engagement update failed")
			continue
		}
		updated++
	}

	r.Log.WithFields(logrus.Fields{"posts": len(posts), "updated": updated}).Info("Updated engagement for posts")
	return updated, nil
}

// StubFetcher reports no new engagement. It stands in until a platform
// analytics client is available.
type StubFetcher struct {
	platform string
}

func NewStubFetcher(platform string) *StubFetcher {
	return &StubFetcher{platform: platform}
}

func (s *StubFetcher) Platform() string { return s.platform }

func (s *StubFetcher) Fetch(ctx context.Context, externalPostID string) (Delta, error) {
	return Delta{}, ctx.Err()
}
