package validate

import (
	"fmt"
	"sort"

	"conveyor/internal/queue"
)

// Dimension names for the five quality scores.
const (
	DimensionHook        = "hook"
	DimensionRelevance   = "relevance"
	DimensionReadability = "readability"
	DimensionSEO         = "seo"
	DimensionOriginality = "originality"
)

// Scorer produces one quality dimension score for a draft, in [0, 1].
// Implementations may be heuristic or model-backed; the registry treats them
// uniformly.
type Scorer interface {
	Name() string
	Score(draft *queue.Draft) float64
}

// Registry holds the scorer set used to evaluate drafts.
type Registry struct {
	scorers map[string]Scorer
}

// NewRegistry builds a registry from the provided scorers. Registering two
// scorers under the same name is a programming error.
func NewRegistry(scorers ...Scorer) (*Registry, error) {
	registry := &Registry{scorers: make(map[string]Scorer, len(scorers))}
	for _, scorer := range scorers {
		if _, exists := registry.scorers[scorer.Name()]; exists {
			return nil, fmt.Errorf("duplicate scorer %q", scorer.Name())
		}
		registry.scorers[scorer.Name()] = scorer
	}
	return registry, nil
}

// DefaultRegistry returns the built-in heuristic scorer set covering all
// five dimensions.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(
		hookScorer{},
		relevanceScorer{},
		readabilityScorer{},
		seoScorer{},
		originalityScorer{},
	)
	if err != nil {
		panic(err)
	}
	return registry
}

// Replace swaps the scorer registered under the given name, allowing
// model-backed scorers to override individual heuristics.
func (r *Registry) Replace(scorer Scorer) {
	r.scorers[scorer.Name()] = scorer
}

// Dimensions returns the registered dimension names in stable order.
func (r *Registry) Dimensions() []string {
	names := make([]string, 0, len(r.scorers))
	for name := range r.scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScoreDraft evaluates every registered dimension, clamping each result
// into [0, 1].
func (r *Registry) ScoreDraft(draft *queue.Draft) map[string]float64 {
	scores := make(map[string]float64, len(r.scorers))
	for name, scorer := range r.scorers {
		scores[name] = clamp01(scorer.Score(draft))
	}
	return scores
}

func clamp01(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
