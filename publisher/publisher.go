package publisher

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Platform tags understood by the registry.
const (
	PlatformYouTube = "youtube"
	PlatformTikTok  = "tiktok"
)

// ErrUnknownPlatform is returned for a platform tag with no registered publisher.
var ErrUnknownPlatform = errors.New("unknown publish platform")

// Publisher uploads processed media to one platform and returns the external post id.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, mediaRef, title string) (string, error)
}

// Registry maps platform tags to publishers.
type Registry struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
}

// NewRegistry creates a registry holding pubs.
func NewRegistry(pubs ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher)}
	for _, p := range pubs {
		r.Register(p)
	}
	return r
}

// NewStubRegistry registers the YouTube and TikTok stubs.
func NewStubRegistry() *Registry {
	return NewRegistry(NewYouTubeStub(), NewTikTokStub())
}

// Register adds or replaces the publisher for p.Platform().
func (r *Registry) Register(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Platform()] = p
}

// Get looks up the publisher for platform.
func (r *Registry) Get(platform string) (Publisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	return p, nil
}

// Platforms lists the registered platform tags, sorted.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.publishers))
	for k := range r.publishers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns prefix + a time-ordered ULID. Safe for concurrent use.
func newID(prefix string) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return prefix + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
