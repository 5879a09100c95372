package render

import (
	"sort"
	"strings"

	"conveyor/internal/queue"
)

// Highlight is a transcript span scored for short-clip potential.
type Highlight struct {
	Start float64
	End   float64
	Text  string
	Score int
}

// Duration returns the span length in seconds.
func (h Highlight) Duration() float64 {
	return h.End - h.Start
}

var highlightKeywords = []string{
	"key", "important", "conclusion", "result", "success", "failure",
	"problem", "solution", "method", "tip", "shocking", "surprising",
	"amazing", "special", "first", "last",
}

var emotionMarkers = []string{"!", "?", "really", "very", "extremely"}

// DetectHighlights scores each transcript segment by keyword and emotion
// hits and returns the spans that clear the minimum score, strongest first.
// Ties break on start time so repeated runs order clips identically.
func DetectHighlights(transcript *queue.Transcript) []Highlight {
	if transcript == nil {
		return nil
	}

	var highlights []Highlight
	for _, segment := range transcript.Segments {
		text := strings.ToLower(segment.Text)

		keywordCount := 0
		for _, keyword := range highlightKeywords {
			if strings.Contains(text, keyword) {
				keywordCount++
			}
		}
		emotionCount := 0
		for _, marker := range emotionMarkers {
			if strings.Contains(text, marker) {
				emotionCount++
			}
		}

		score := keywordCount*10 + emotionCount*5
		if score < 10 {
			continue
		}
		highlights = append(highlights, Highlight{
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
			Score: score,
		})
	}

	sort.SliceStable(highlights, func(i, j int) bool {
		if highlights[i].Score != highlights[j].Score {
			return highlights[i].Score > highlights[j].Score
		}
		return highlights[i].Start < highlights[j].Start
	})
	return highlights
}

// SelectClips filters highlights down to renderable clips: spans shorter
// than minSeconds are dropped, spans longer than maxSeconds are trimmed to
// maxSeconds from their start, and at most limit clips survive.
func SelectClips(highlights []Highlight, minSeconds, maxSeconds float64, limit int) []Highlight {
	var clips []Highlight
	for _, highlight := range highlights {
		if highlight.Duration() < minSeconds {
			continue
		}
		if maxSeconds > 0 && highlight.Duration() > maxSeconds {
			highlight.End = highlight.Start + maxSeconds
		}
		clips = append(clips, highlight)
		if limit > 0 && len(clips) == limit {
			break
		}
	}
	return clips
}

// BestClipFor picks the clip whose text best matches the draft's title and
// tags, falling back to the strongest highlight when nothing overlaps.
func BestClipFor(draft *queue.Draft, clips []Highlight) (Highlight, bool) {
	if len(clips) == 0 {
		return Highlight{}, false
	}

	terms := draftTerms(draft)
	best := clips[0]
	bestScore := clipAffinity(clips[0], terms)
	for _, clip := range clips[1:] {
		if score := clipAffinity(clip, terms); score > bestScore {
			best = clip
			bestScore = score
		}
	}
	return best, true
}

func clipAffinity(clip Highlight, terms []string) int {
	text := strings.ToLower(clip.Text)
	score := clip.Score
	for _, term := range terms {
		if strings.Contains(text, term) {
			score += 5
		}
	}
	return score
}

func draftTerms(draft *queue.Draft) []string {
	if draft == nil {
		return nil
	}
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(draft.Title)) {
		if len(word) >= 4 {
			terms = append(terms, word)
		}
	}
	for _, tag := range draft.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			terms = append(terms, tag)
		}
	}
	return terms
}
