package publisher

import (
	"context"
	"fmt"
)

// Stub stands in for a platform upload. It performs no network calls.
type Stub struct {
	platform string
	prefix   string
}

// NewYouTubeStub returns a publisher issuing "yt_" ids.
func NewYouTubeStub() *Stub {
	return &Stub{platform: PlatformYouTube, prefix: "yt_"}
}

// NewTikTokStub returns a publisher issuing "tt_" ids.
func NewTikTokStub() *Stub {
	return &Stub{platform: PlatformTikTok, prefix: "tt_"}
}

func (s *Stub) Platform() string { return s.platform }

// Publish validates its inputs and returns a fresh external post id.
func (s *Stub) Publish(ctx context.Context, mediaRef, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if mediaRef == "" {
		return "", fmt.Errorf("%s publish: empty media reference", s.platform)
	}
	return newID(s.prefix), nil
}
