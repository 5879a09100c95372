package media

import (
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
		},
		Format: Format{
			Duration:   "123.45",
			FormatName: "mov,mp4,m4a",
		},
	}
	video := result.VideoStream()
	if video == nil || video.CodecName != "h264" {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	audio := result.AudioStream()
	if audio == nil || audio.CodecName != "aac" {
		t.Fatalf("unexpected audio stream: %+v", audio)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestDurationHandlesInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	empty := Result{}
	if empty.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0 for empty result, got %v", empty.DurationSeconds())
	}
}

func TestKindForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/watch/clip.mp4", "video"},
		{"/watch/EPISODE.MKV", "video"},
		{"/watch/podcast.mp3", "audio"},
		{"/watch/notes.md", "text"},
		{"/watch/capture.raw", "video"},
		{"/watch/noext", "video"},
	}
	for _, tc := range cases {
		if got := KindForPath(tc.path); got != tc.want {
			t.Errorf("KindForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
