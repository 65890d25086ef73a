package processing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBuildsYtDlpCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	f := NewYtDlpFetcher("", "http://proxy:8080")
	f.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}

	require.NoError(t, f.Fetch(context.Background(), "https://youtube.com/shorts/aa", "/media/aa.mp4"))
	assert.Equal(t, "yt-dlp", gotName)

	joined := strings.Join(gotArgs, " ")
	assert.Contains(t, joined, "--no-playlist")
	assert.Contains(t, joined, "-o /media/aa.mp4")
	assert.Contains(t, joined, "--merge-output-format mp4")
	assert.Contains(t, joined, "--proxy http://proxy:8080")
	assert.Equal(t, "https://youtube.com/shorts/aa", gotArgs[len(gotArgs)-1])
}

func TestFetchErrors(t *testing.T) {
	f := NewYtDlpFetcher("yt-dlp", "")
	f.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		for _, a := range args {
			assert.NotEqual(t, "--proxy", a)
		}
		return nil, errors.New("exit status 1: ERROR: Video unavailable")
	}

	err := f.Fetch(context.Background(), "https://tiktok.com/@a/video/1", "/media/1.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Video unavailable")

	assert.Error(t, f.Fetch(context.Background(), "", "/media/1.mp4"))
}
