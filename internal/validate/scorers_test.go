package validate

import (
	"strings"
	"testing"

	"conveyor/internal/queue"
)

func TestHookScorerRewardsHookWordsAndTitleLength(t *testing.T) {
	strong := &queue.Draft{
		Title:   "The Secret Method Behind Every Proven Result You Have Never Seen",
		Summary: "A shocking look at an essential workflow.",
	}
	weak := &queue.Draft{Title: "Notes", Summary: "Some notes."}

	strongScore := hookScorer{}.Score(strong)
	weakScore := hookScorer{}.Score(weak)
	if strongScore <= weakScore {
		t.Fatalf("strong hook %.2f should outscore weak hook %.2f", strongScore, weakScore)
	}
	if strongScore > 1 || weakScore < 0 {
		t.Fatalf("scores out of range: strong %.2f weak %.2f", strongScore, weakScore)
	}
}

func TestHookScorerCapsAtOne(t *testing.T) {
	title := "secret shocking surprising essential must amazing special innovative"
	score := hookScorer{}.Score(&queue.Draft{Title: title})
	if score != 1 {
		t.Fatalf("score = %.2f, want cap at 1", score)
	}
}

func TestRelevanceScorerFieldCompleteness(t *testing.T) {
	full := &queue.Draft{
		Title:      "Release walkthrough",
		Body:       strings.Repeat("Detailed coverage of the release. ", 30),
		Tags:       []string{"release", "walkthrough"},
		Categories: []string{"engineering"},
		Summary:    "What shipped and why it matters.",
	}
	empty := &queue.Draft{}

	scorer := relevanceScorer{}
	if score := scorer.Score(full); score != 1 {
		t.Fatalf("fully populated draft scored %.2f, want 1", score)
	}
	if score := scorer.Score(empty); score != 0 {
		t.Fatalf("empty draft scored %.2f, want 0", score)
	}
}

func TestReadabilityScorerEmptyBodyScoresZero(t *testing.T) {
	score := readabilityScorer{}.Score(&queue.Draft{Body: "   "})
	if score != 0 {
		t.Fatalf("blank body scored %.2f, want 0", score)
	}
}

func TestReadabilityScorerPrefersMidLengthSentencesAndParagraphs(t *testing.T) {
	sentence := "This sentence carries exactly eighteen words so the average lands inside the band the scorer rewards most."
	good := &queue.Draft{Body: sentence + "\n\n" + sentence + "\n\n" + sentence}
	choppy := &queue.Draft{Body: "Short. Very short. Tiny."}

	goodScore := readabilityScorer{}.Score(good)
	choppyScore := readabilityScorer{}.Score(choppy)
	if goodScore <= choppyScore {
		t.Fatalf("structured body %.2f should outscore choppy body %.2f", goodScore, choppyScore)
	}
}

func TestSEOScorerChecklist(t *testing.T) {
	full := &queue.Draft{
		Title:   "Full checklist",
		Summary: strings.Repeat("A summary long enough for a meta description. ", 2),
		Tags:    []string{"one", "two", "three"},
		Body:    "Body text.",
	}
	scorer := seoScorer{}
	if score := scorer.Score(full); score != 1 {
		t.Fatalf("score = %.2f, want 1", score)
	}

	missingTags := &queue.Draft{Title: "Partial", Body: "Body text."}
	if score := scorer.Score(missingTags); score != 0.5 {
		t.Fatalf("score = %.2f, want 0.5 for title and body only", score)
	}
}

func TestOriginalityScorerPenalizesFillerPhrases(t *testing.T) {
	filler := &queue.Draft{Body: strings.Repeat("hello everyone in this video we basically really talk. ", 10)}
	crafted := &queue.Draft{Body: "### Findings\n\nThe **measured** approach held up under load.\n\n" + strings.Repeat("Original analysis of the data. ", 40)}

	fillerScore := originalityScorer{}.Score(filler)
	craftedScore := originalityScorer{}.Score(crafted)
	if craftedScore <= fillerScore {
		t.Fatalf("crafted body %.2f should outscore filler body %.2f", craftedScore, fillerScore)
	}
}

func TestDefaultRegistryCoversAllDimensions(t *testing.T) {
	want := []string{DimensionHook, DimensionOriginality, DimensionReadability, DimensionRelevance, DimensionSEO}
	got := DefaultRegistry().Dimensions()
	if len(got) != len(want) {
		t.Fatalf("dimensions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dimensions = %v, want %v", got, want)
		}
	}
}

func TestScoreDraftClampsCustomScorers(t *testing.T) {
	registry, err := NewRegistry(staticScorer{name: "custom", value: 3.5})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	scores := registry.ScoreDraft(&queue.Draft{})
	if scores["custom"] != 1 {
		t.Fatalf("score = %.2f, want clamp to 1", scores["custom"])
	}
}

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(staticScorer{name: "dup"}, staticScorer{name: "dup"})
	if err == nil {
		t.Fatal("expected duplicate scorer name error")
	}
}

type staticScorer struct {
	name  string
	value float64
}

func (s staticScorer) Name() string               { return s.name }
func (s staticScorer) Score(*queue.Draft) float64 { return s.value }
