package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/zefparis/pub/internal/execx"
)

// YtDlpSource searches a platform through yt-dlp's flat playlist extraction.
type YtDlpSource struct {
	platform  string
	Bin       string
	Proxy     string
	SearchURL func(topic string) string
	Run       execx.Runner
}

func NewYouTubeSource(bin, proxy string) *YtDlpSource {
	return &YtDlpSource{
		platform: "youtube",
		Bin:      bin,
		Proxy:    proxy,
		SearchURL: func(topic string) string {
			return "https://www.youtube.com/results?search_query=" + url.QueryEscape(topic) + "+shorts"
		},
		Run: execx.Run,
	}
}

func NewTikTokSource(bin, proxy string) *YtDlpSource {
	return &YtDlpSource{
		platform: "tiktok",
		Bin:      bin,
		Proxy:    proxy,
		SearchURL: func(topic string) string {
			return "https://www.tiktok.com/search?q=" + url.QueryEscape(topic)
		},
		Run: execx.Run,
	}
}

func (s *YtDlpSource) Platform() string {
	return s.platform
}

type ytDlpEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Duration   *float64 `json:"duration"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
	Thumbnail  string   `json:"thumbnail"`
	Thumbnails []struct {
		URL string `json:"url"`
	} `json:"thumbnails"`
}

type ytDlpResult struct {
	Entries []ytDlpEntry `json:"entries"`
}

func (s *YtDlpSource) Search(ctx context.Context, topic string, limit int) ([]CandidateItem, error) {
	args := []string{
		"--dump-single-json",
		"--flat-playlist",
		"--no-warnings",
		"--skip-download",
		"--playlist-end", strconv.Itoa(limit),
	}
	if s.Proxy != "" {
		args = append(args, "--proxy", s.Proxy)
	}
	args = append(args, s.SearchURL(topic))

	raw, err := s.Run(ctx, s.Bin, args...)
	if err != nil {
		return nil, err
	}

	var res ytDlpResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("error unmarshalling yt-dlp output: %w", err)
	}

	items := make([]CandidateItem, 0, len(res.Entries))
	for _, e := range res.Entries {
		item := CandidateItem{
			Platform:   s.platform,
			ExternalID: e.ID,
			Title:      e.Title,
			URL:        e.URL,
			Thumbnail:  e.Thumbnail,
		}
		if item.URL == "" {
			item.URL = e.WebpageURL
		}
		if item.Thumbnail == "" && len(e.Thumbnails) > 0 {
			item.Thumbnail = e.Thumbnails[len(e.Thumbnails)-1].URL
		}
		if e.Duration != nil {
			item.DurationSeconds = *e.Duration
		}
		items = append(items, item)
	}
	return items, nil
}
