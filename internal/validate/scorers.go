package validate

import (
	"strings"

	"conveyor/internal/queue"
)

// The heuristic scorers grade on an internal 0-100 scale and normalize on
// return. Keeping the familiar percentage arithmetic makes the weights easier
// to reason about than raw fractions.

var hookWords = []string{
	"secret", "shocking", "surprising", "essential", "must", "amazing",
	"special", "innovative", "first", "last", "best", "worst", "result",
	"method", "proven",
}

// hookScorer rewards attention-grabbing title and summary wording plus a
// title length in the 50-100 character band.
type hookScorer struct{}

func (hookScorer) Name() string { return DimensionHook }

func (hookScorer) Score(draft *queue.Draft) float64 {
	haystack := strings.ToLower(draft.Title + " " + draft.Summary)
	hookCount := 0
	for _, word := range hookWords {
		if strings.Contains(haystack, word) {
			hookCount++
		}
	}

	titleLen := len([]rune(draft.Title))
	var titleLengthScore float64
	switch {
	case titleLen >= 50 && titleLen <= 100:
		titleLengthScore = 1.0
	case titleLen < 50:
		titleLengthScore = float64(titleLen) / 50
	default:
		titleLengthScore = 100 / float64(titleLen)
	}

	score := float64(hookCount)*20 + titleLengthScore*30
	if score > 100 {
		score = 100
	}
	return score / 100
}

// relevanceScorer rewards field completeness, body length, and structural
// fields (tags, categories, summary).
type relevanceScorer struct{}

func (relevanceScorer) Name() string { return DimensionRelevance }

func (relevanceScorer) Score(draft *queue.Draft) float64 {
	presentFields := 0
	if strings.TrimSpace(draft.Title) != "" {
		presentFields++
	}
	if strings.TrimSpace(draft.Body) != "" {
		presentFields++
	}

	bodyLengthScore := float64(len([]rune(draft.Body))) / 500
	if bodyLengthScore > 1 {
		bodyLengthScore = 1
	}

	var structureScore float64
	if len(draft.Tags) > 0 {
		structureScore += 20
	}
	if len(draft.Categories) > 0 {
		structureScore += 20
	}
	if strings.TrimSpace(draft.Summary) != "" {
		structureScore += 10
	}

	score := float64(presentFields)/2*40 + bodyLengthScore*30 + structureScore
	if score > 100 {
		score = 100
	}
	return score / 100
}

// readabilityScorer rewards an average sentence length in the 15-25 word
// band and at least three paragraphs.
type readabilityScorer struct{}

func (readabilityScorer) Name() string { return DimensionReadability }

func (readabilityScorer) Score(draft *queue.Draft) float64 {
	body := draft.Body
	if strings.TrimSpace(body) == "" {
		return 0
	}

	sentences := strings.Split(body, ".")
	totalWords := 0
	for _, sentence := range sentences {
		totalWords += len(strings.Fields(sentence))
	}
	avgSentenceLength := float64(totalWords) / float64(len(sentences))

	var sentenceScore float64
	switch {
	case avgSentenceLength >= 15 && avgSentenceLength <= 25:
		sentenceScore = 1.0
	case avgSentenceLength < 15:
		sentenceScore = avgSentenceLength / 15
	default:
		sentenceScore = 25 / avgSentenceLength
	}

	paragraphs := 0
	for _, paragraph := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(paragraph) != "" {
			paragraphs++
		}
	}
	paragraphScore := float64(paragraphs) / 3
	if paragraphScore > 1 {
		paragraphScore = 1
	}

	return sentenceScore*0.5 + paragraphScore*0.5
}

// seoScorer rewards a present title, a summary long enough to serve as a
// meta description, at least three tags, and a non-empty body.
type seoScorer struct{}

func (seoScorer) Name() string { return DimensionSEO }

func (seoScorer) Score(draft *queue.Draft) float64 {
	var score float64
	if strings.TrimSpace(draft.Title) != "" {
		score += 30
	}
	if len([]rune(draft.Summary)) > 50 {
		score += 20
	}
	if len(draft.Tags) >= 3 {
		score += 30
	}
	if strings.TrimSpace(draft.Body) != "" {
		score += 20
	}
	return score / 100
}

var commonPhrases = []string{
	"hello everyone", "today we", "many people", "welcome back",
	"in this video", "really", "very", "basically",
}

// originalityScorer penalizes filler phrasing and rewards length and
// structural variety (headings, emphasis).
type originalityScorer struct{}

func (originalityScorer) Name() string { return DimensionOriginality }

func (originalityScorer) Score(draft *queue.Draft) float64 {
	haystack := strings.ToLower(draft.Title + " " + draft.Body)

	var penalty float64
	for _, phrase := range commonPhrases {
		penalty += float64(strings.Count(haystack, phrase)) * 5
	}

	lengthBonus := float64(len([]rune(draft.Body))) / 1000
	if lengthBonus > 20 {
		lengthBonus = 20
	}

	var structureBonus float64
	if strings.Contains(draft.Body, "###") {
		structureBonus += 10
	}
	if strings.Contains(draft.Body, "**") {
		structureBonus += 10
	}

	score := 100 - penalty + lengthBonus + structureBonus
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score / 100
}
