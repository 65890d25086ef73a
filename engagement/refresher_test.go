package engagement

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefparis/pub/internal/testutil"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/store"
)

type mockFetcher struct {
	platform string
	FetchFn  func(ctx context.Context, id string) (Delta, error)
}

func (m *mockFetcher) Platform() string { return m.platform }

func (m *mockFetcher) Fetch(ctx context.Context, id string) (Delta, error) {
	return m.FetchFn(ctx, id)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRefreshAppliesDeltas(t *testing.T) {
	st := store.New(testutil.NewDB(t))
	ctx := context.Background()

	v := &models.Video{Platform: "youtube", ExternalVideoID: "e1", URL: "u"}
	_, err := st.InsertVideoIfAbsent(ctx, v)
	require.NoError(t, err)

	yt, tt := "yt_1", "tt_1"
	ytPost := &models.Post{VideoID: v.ID, PlatformTarget: "youtube", ExternalPostID: &yt}
	ttPost := &models.Post{VideoID: v.ID, PlatformTarget: "tiktok", ExternalPostID: &tt}
	unpublished := &models.Post{VideoID: v.ID, PlatformTarget: "youtube"}
	require.NoError(t, st.CreatePost(ctx, ytPost))
	require.NoError(t, st.CreatePost(ctx, ttPost))
	require.NoError(t, st.CreatePost(ctx, unpublished))

	r := NewRefresher(st, quietLogger(),
		&mockFetcher{platform: "youtube", FetchFn: func(_ context.Context, id string) (Delta, error) {
			assert.Equal(t, "yt_1", id)
			return Delta{Views: 12, Likes: 2, Comments: 1}, nil
		}},
		&mockFetcher{platform: "tiktok", FetchFn: func(context.Context, string) (Delta, error) {
			return Delta{}, errors.New("api down")
		}},
	)

	n, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	posts, err := st.PostsForVideo(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, 12, posts[0].Views)
	assert.Equal(t, 2, posts[0].Likes)
	assert.Equal(t, 1, posts[0].Comments)
	assert.Zero(t, posts[1].Views)
	assert.Zero(t, posts[2].Views)
}

func TestStubFetcherReportsNothing(t *testing.T) {
	f := NewStubFetcher("tiktok")
	assert.Equal(t, "tiktok", f.Platform())
	d, err := f.Fetch(context.Background(), "tt_1")
	require.NoError(t, err)
	assert.Equal(t, Delta{}, d)
}
