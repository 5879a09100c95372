package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"conveyor/internal/queue"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Probe inspects a source file and converts the result into item metadata.
// A probe failure is not fatal: the returned metadata still carries the
// media kind derived from the file extension, and the error lets callers log
// the degradation.
func Probe(ctx context.Context, binary, path string) (queue.MediaMetadata, error) {
	meta := queue.MediaMetadata{MediaKind: KindForPath(path)}

	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return meta, err
	}

	meta.DurationSeconds = result.DurationSeconds()
	meta.Format = result.Format.FormatName
	if video := result.VideoStream(); video != nil {
		meta.Codec = video.CodecName
		meta.Width = video.Width
		meta.Height = video.Height
	} else if audio := result.AudioStream(); audio != nil {
		meta.Codec = audio.CodecName
	}
	if raw, ok := result.Format.Tags["creation_time"]; ok {
		if captured, err := time.Parse(time.RFC3339, raw); err == nil {
			meta.CaptureTime = captured.UTC()
		}
	}
	return meta, nil
}

// VideoStream returns the first video stream, or nil when none exists.
func (r Result) VideoStream() *Stream {
	for i, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return &r.Streams[i]
		}
	}
	return nil
}

// AudioStream returns the first audio stream, or nil when none exists.
func (r Result) AudioStream() *Stream {
	for i, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return &r.Streams[i]
		}
	}
	return nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	duration := parseFloat(r.Format.Duration)
	if math.IsNaN(duration) || duration < 0 {
		return 0
	}
	return duration
}

var kindByExtension = map[string]string{
	".mp4":  "video",
	".mov":  "video",
	".mkv":  "video",
	".webm": "video",
	".avi":  "video",
	".mp3":  "audio",
	".m4a":  "audio",
	".wav":  "audio",
	".flac": "audio",
	".ogg":  "audio",
	".txt":  "text",
	".md":   "text",
	".srt":  "text",
}

// KindForPath classifies a source file by extension. Unrecognized extensions
// classify as video so unusual containers still flow through the pipeline.
func KindForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return "video"
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
