package transcribe

import (
	"fmt"
	"strings"

	"conveyor/internal/queue"
)

// FormatSRT renders the transcript as SubRip subtitles.
func FormatSRT(transcript *queue.Transcript) string {
	if transcript == nil {
		return ""
	}
	var b strings.Builder
	for i, seg := range transcript.Segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			i+1,
			formatTimestamp(seg.Start, ","),
			formatTimestamp(seg.End, ","),
			strings.TrimSpace(seg.Text),
		)
	}
	return b.String()
}

// FormatVTT renders the transcript as WebVTT subtitles.
func FormatVTT(transcript *queue.Transcript) string {
	if transcript == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range transcript.Segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n",
			formatTimestamp(seg.Start, "."),
			formatTimestamp(seg.End, "."),
			strings.TrimSpace(seg.Text),
		)
	}
	return b.String()
}

// formatTimestamp renders seconds as HH:MM:SS<sep>mmm. SRT uses a comma
// before the milliseconds, WebVTT a period.
func formatTimestamp(seconds float64, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	hours := totalMillis / 3_600_000
	minutes := (totalMillis % 3_600_000) / 60_000
	secs := (totalMillis % 60_000) / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
}
