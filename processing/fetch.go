package processing

import (
	"context"
	"fmt"

	"github.com/zefparis/pub/internal/execx"
)

// MediaFetcher downloads a discovered video to a local file.
type MediaFetcher interface {
	Fetch(ctx context.Context, sourceURL, dest string) error
}

// YtDlpFetcher downloads single videos with yt-dlp. yt-dlp leaves an
// existing dest in place, so retries after a failed transform do not
// download again.
type YtDlpFetcher struct {
	Bin    string
	Proxy  string
	Format string
	Run    execx.Runner
}

const defaultFetchFormat = "mp4/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best"

func NewYtDlpFetcher(bin, proxy string) *YtDlpFetcher {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &YtDlpFetcher{
		Bin:    bin,
		Proxy:  proxy,
		Format: defaultFetchFormat,
		Run:    execx.Run,
	}
}

func (f *YtDlpFetcher) Fetch(ctx context.Context, sourceURL, dest string) error {
	if sourceURL == "" {
		return fmt.Errorf("fetch: empty source url")
	}
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"-f", f.Format,
		"--merge-output-format", "mp4",
		"-o", dest,
	}
	if f.Proxy != "" {
		args = append(args, "--proxy", f.Proxy)
	}
	args = append(args, sourceURL)

	if _, err := f.Run(ctx, f.Bin, args...); err != nil {
		return fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	return nil
}
