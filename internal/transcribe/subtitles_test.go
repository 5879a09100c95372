package transcribe

import (
	"strings"
	"testing"

	"conveyor/internal/queue"
)

func sampleTranscript() *queue.Transcript {
	return &queue.Transcript{
		Language: "en",
		Segments: []queue.Segment{
			{Start: 0, End: 3.5, Text: "First line"},
			{Start: 3.5, End: 65.25, Text: "Second line"},
		},
	}
}

func TestFormatSRT(t *testing.T) {
	srt := FormatSRT(sampleTranscript())
	want := "1\n00:00:00,000 --> 00:00:03,500\nFirst line\n\n" +
		"2\n00:00:03,500 --> 00:01:05,250\nSecond line\n\n"
	if srt != want {
		t.Fatalf("unexpected srt output:\n%s", srt)
	}
}

func TestFormatVTT(t *testing.T) {
	vtt := FormatVTT(sampleTranscript())
	if !strings.HasPrefix(vtt, "WEBVTT\n\n") {
		t.Fatalf("missing WEBVTT header:\n%s", vtt)
	}
	if !strings.Contains(vtt, "00:00:03.500 --> 00:01:05.250") {
		t.Fatalf("expected period-separated timestamps:\n%s", vtt)
	}
}

func TestFormatTimestampHourRollover(t *testing.T) {
	if got := formatTimestamp(3661.007, ","); got != "01:01:01,007" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}

func TestDeriveChapters(t *testing.T) {
	segments := make([]queue.Segment, 0, 9)
	texts := []string{
		"Opening remarks about the project and where it came from",
		"b", "c", "d",
		"Second chapter begins with a bold claim",
		"f", "g", "h",
		"Trailing thoughts",
	}
	for i, text := range texts {
		segments = append(segments, queue.Segment{
			Start: float64(i * 10),
			End:   float64(i*10 + 10),
			Text:  text,
		})
	}

	chapters := DeriveChapters(segments)
	if len(chapters) != 3 {
		t.Fatalf("expected 3 chapters for 9 segments, got %d", len(chapters))
	}
	if chapters[0].Start != 0 || chapters[0].End != 40 {
		t.Fatalf("unexpected first chapter bounds: %+v", chapters[0])
	}
	if chapters[0].Title != "Opening remarks about the project and" {
		t.Fatalf("unexpected first chapter title: %q", chapters[0].Title)
	}
	if chapters[2].Start != 80 || chapters[2].End != 90 {
		t.Fatalf("unexpected final chapter bounds: %+v", chapters[2])
	}
}

func TestDeriveChaptersEmpty(t *testing.T) {
	if chapters := DeriveChapters(nil); chapters != nil {
		t.Fatalf("expected nil chapters, got %v", chapters)
	}
}
