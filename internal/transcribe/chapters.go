package transcribe

import (
	"strings"

	"conveyor/internal/queue"
)

// chapterStride is how many segments make up one chapter.
const chapterStride = 4

// DeriveChapters groups transcript segments into coarse chapters, one per
// stride of segments. The chapter title is the leading words of its first
// segment.
func DeriveChapters(segments []queue.Segment) []queue.Chapter {
	if len(segments) == 0 {
		return nil
	}
	var chapters []queue.Chapter
	for start := 0; start < len(segments); start += chapterStride {
		end := start + chapterStride
		if end > len(segments) {
			end = len(segments)
		}
		group := segments[start:end]
		chapters = append(chapters, queue.Chapter{
			Start:   group[0].Start,
			End:     group[len(group)-1].End,
			Title:   chapterTitle(group[0].Text),
			Summary: chapterSummary(group),
		})
	}
	return chapters
}

func chapterTitle(text string) string {
	words := strings.Fields(strings.TrimSpace(text))
	const maxWords = 6
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	if len(words) == 0 {
		return "Chapter"
	}
	return strings.Join(words, " ")
}

func chapterSummary(group []queue.Segment) string {
	parts := make([]string, 0, len(group))
	for _, seg := range group {
		if trimmed := strings.TrimSpace(seg.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	summary := strings.Join(parts, " ")
	const maxRunes = 200
	runes := []rune(summary)
	if len(runes) > maxRunes {
		summary = strings.TrimSpace(string(runes[:maxRunes])) + "..."
	}
	return summary
}
