package smartlinks

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefparis/pub/internal/testutil"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/store"
)

type mockSyncer struct {
	mu     sync.Mutex
	emails []string
	AddFn  func(ctx context.Context, email string) error
}

func (m *mockSyncer) AddContact(ctx context.Context, email string) error {
	m.mu.Lock()
	m.emails = append(m.emails, email)
	m.mu.Unlock()
	if m.AddFn != nil {
		return m.AddFn(ctx, email)
	}
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, syncer ContactSyncer) (*Service, *store.Store) {
	st := store.New(testutil.NewDB(t))
	return NewService(st, syncer, quietLogger()), st
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"deals":                 "deals",
		"Café Crème":            "cafe-creme",
		"  --Hello__World!!-- ": "hello-world",
		"":                      "offer",
		"???":                   "offer",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in, 40), in)
	}
	assert.Len(t, Slugify(strings.Repeat("ab", 50), 40), 40)
}

func TestSlugBase(t *testing.T) {
	tests := map[string]string{
		"https://www.amazon.com/deals":           "deals",
		"https://shop.example.com/p/Best-Gadget/": "best-gadget",
		"https://example.com/item?id=3":          "item",
		"https://example.com/":                   "offer",
		"https://example.com":                    "offer",
	}
	for in, want := range tests {
		assert.Equal(t, want, SlugBase(in), in)
	}
}

func TestRandomSuffix(t *testing.T) {
	s, err := randomSuffix(5)
	require.NoError(t, err)
	assert.Len(t, s, 5)
	for _, r := range s {
		assert.True(t, strings.ContainsRune(base36, r), string(r))
	}
}

func TestCreateLink(t *testing.T) {
	svc, _ := newTestService(t, nil)

	link, err := svc.CreateLink(context.Background(), nil, "https://www.amazon.com/deals", "youtube")
	require.NoError(t, err)
	assert.Regexp(t, `^deals-[a-z0-9]{5}$`, link.Slug)
	assert.Equal(t, 0, link.Clicks)
	require.NotNil(t, link.SourcePlatform)
	assert.Equal(t, "youtube", *link.SourcePlatform)

	_, err = svc.CreateLink(context.Background(), nil, "  ", "")
	assert.Error(t, err)
}

func TestCreateLinkRetriesOnCollision(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	seq := []string{"aaaaa", "aaaaa", "bbbbb"}
	var calls int
	svc.suffix = func() (string, error) {
		s := seq[calls]
		calls++
		return s, nil
	}

	first, err := svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	require.NoError(t, err)
	assert.Equal(t, "deals-aaaaa", first.Slug)

	second, err := svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	require.NoError(t, err)
	assert.Equal(t, "deals-bbbbb", second.Slug)
	assert.Equal(t, 3, calls)
}

func TestCreateLinkGivesUpAfterMaxAttempts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	var calls int
	svc.suffix = func() (string, error) {
		calls++
		return "zzzzz", nil
	}
	_, err := svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	require.NoError(t, err)

	calls = 0
	_, err = svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	assert.ErrorIs(t, err, store.ErrSlugTaken)
	assert.Equal(t, maxSlugAttempts, calls)
}

func TestCreateLinkConcurrentSlugsAreUnique(t *testing.T) {
	svc, st := newTestService(t, nil)

	const n = 50
	var wg sync.WaitGroup
	slugs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := svc.CreateLink(context.Background(), nil, "https://x.com/deals", "")
			if assert.NoError(t, err) {
				slugs <- link.Slug
			}
		}()
	}
	wg.Wait()
	close(slugs)

	seen := map[string]bool{}
	for s := range slugs {
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)

	var count int64
	require.NoError(t, st.DB.Model(&models.SmartLink{}).Count(&count).Error)
	assert.Equal(t, int64(n), count)
}

func TestEnsureForVideoReusesLink(t *testing.T) {
	svc, st := newTestService(t, nil)
	ctx := context.Background()

	v := &models.Video{Platform: "youtube", ExternalVideoID: "e1", URL: "u"}
	_, err := st.InsertVideoIfAbsent(ctx, v)
	require.NoError(t, err)

	first, created, err := svc.EnsureForVideo(ctx, v.ID, "https://x.com/deals", "youtube")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.EnsureForVideo(ctx, v.ID, "https://x.com/other", "youtube")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestCaptureEmail(t *testing.T) {
	syncer := &mockSyncer{AddFn: func(context.Context, string) error { return errors.New("brevo down") }}
	svc, st := newTestService(t, syncer)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	require.NoError(t, err)

	require.NoError(t, svc.CaptureEmail(ctx, link.Slug, "  fan@example.com "))
	require.NoError(t, svc.CaptureEmail(ctx, link.Slug, "   "))
	assert.ErrorIs(t, svc.CaptureEmail(ctx, "nope-00000", "x@y.z"), ErrNotFound)
	svc.Wait()

	var rows []models.EmailCapture
	require.NoError(t, st.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "fan@example.com", rows[0].Email)
	require.NotNil(t, rows[0].SourceSmartLinkID)
	assert.Equal(t, link.ID, *rows[0].SourceSmartLinkID)

	assert.Equal(t, []string{"fan@example.com"}, syncer.emails)
}

func TestRecordClick(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	link, err := svc.CreateLink(ctx, nil, "https://x.com/deals", "")
	require.NoError(t, err)

	target, err := svc.RecordClick(ctx, link.Slug, ClickMeta{})
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/deals", target)

	_, err = svc.RecordClick(ctx, "missing-00000", ClickMeta{})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Lookup(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Clicks)
}

func TestAttributionHelpers(t *testing.T) {
	assert.Equal(t, "mobile", DeviceFromUserAgent("Mozilla/5.0 (iPhone) Mobile/15E148"))
	assert.Equal(t, "desktop", DeviceFromUserAgent("Mozilla/5.0 (X11; Linux x86_64)"))
	assert.Equal(t, "desktop", DeviceFromUserAgent(""))

	assert.Equal(t, "203.0.113.7", ClientIP("203.0.113.7, 10.0.0.1", "10.0.0.2:5555"))
	assert.Equal(t, "10.0.0.2", ClientIP("", "10.0.0.2:5555"))
	assert.Equal(t, "pipe", ClientIP("", "pipe"))

	assert.Equal(t, "unknown", SourceFromQuery(""))
	assert.Equal(t, "yt", SourceFromQuery("yt"))
}
