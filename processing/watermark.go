package processing

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zefparis/pub/internal/execx"
)

// Overlay styling applied to every watermark.
const (
	FontSize  = 24
	FontColor = "white"
	BoxColor  = "black@0.5"
	BoxBorder = 5
)

// Watermarker overlays text on a media file and returns the new media reference.
type Watermarker interface {
	Apply(ctx context.Context, sourceRef, overlayText string) (string, error)
}

// FFmpegWatermarker burns a drawtext overlay into the video with ffmpeg.
// Errors are returned as-is; callers must not publish the unmarked source.
type FFmpegWatermarker struct {
	Bin         string
	FontFile    string
	DefaultText string
	X, Y        int
	Run         execx.Runner
}

// NewFFmpegWatermarker creates a watermarker positioned at (x, y).
func NewFFmpegWatermarker(bin, fontFile, defaultText string, x, y int) *FFmpegWatermarker {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpegWatermarker{
		Bin:         bin,
		FontFile:    fontFile,
		DefaultText: defaultText,
		X:           x,
		Y:           y,
		Run:         execx.Run,
	}
}

// Apply writes <source>_wm<ext> next to the source.
func (w *FFmpegWatermarker) Apply(ctx context.Context, sourceRef, overlayText string) (string, error) {
	if sourceRef == "" {
		return "", fmt.Errorf("watermark: empty source")
	}
	text := strings.TrimSpace(overlayText)
	if text == "" {
		text = w.DefaultText
	}

	out := OutputRef(sourceRef)
	args := []string{
		"-y",
		"-i", sourceRef,
		"-vf", w.Filter(text),
		"-codec:a", "copy",
		out,
	}
	if _, err := w.Run(ctx, w.Bin, args...); err != nil {
		return "", fmt.Errorf("watermark %s: %w", sourceRef, err)
	}
	return out, nil
}

// Filter builds the drawtext filter expression for text.
func (w *FFmpegWatermarker) Filter(text string) string {
	parts := []string{}
	if w.FontFile != "" {
		parts = append(parts, "fontfile="+w.FontFile)
	}
	parts = append(parts,
		fmt.Sprintf("text='%s'", escapeDrawtext(text)),
		fmt.Sprintf("x=%d", w.X),
		fmt.Sprintf("y=%d", w.Y),
		fmt.Sprintf("fontsize=%d", FontSize),
		"fontcolor="+FontColor,
		"box=1",
		"boxcolor="+BoxColor,
		fmt.Sprintf("boxborderw=%d", BoxBorder),
	)
	return "drawtext=" + strings.Join(parts, ":")
}

// OutputRef inserts "_wm" before the extension: /tmp/a.mp4 -> /tmp/a_wm.mp4.
func OutputRef(sourceRef string) string {
	ext := filepath.Ext(sourceRef)
	if ext == "" {
		return sourceRef + "_wm"
	}
	return strings.TrimSuffix(sourceRef, ext) + "_wm" + ext
}

var drawtextEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, "’",
	`%`, `\%`,
	`:`, `\:`,
)

func escapeDrawtext(s string) string {
	return drawtextEscaper.Replace(s)
}
