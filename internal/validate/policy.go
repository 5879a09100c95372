package validate

import (
	"fmt"
	"sort"

	"conveyor/internal/config"
	"conveyor/internal/queue"
)

// Policy decides whether a scored draft passes quality review. A draft is
// accepted when its mean score meets the accept threshold and no single
// dimension falls below the floor.
type Policy struct {
	AcceptThreshold float64
	DimensionFloor  float64
}

// PolicyFromConfig builds a policy from the validation settings.
func PolicyFromConfig(cfg config.Validation) Policy {
	return Policy{
		AcceptThreshold: cfg.AcceptThreshold,
		DimensionFloor:  cfg.DimensionFloor,
	}
}

// Decision is the outcome of evaluating a scored draft.
type Decision struct {
	Outcome      queue.Outcome
	Scores       map[string]float64
	Aggregate    float64
	RejectReason string
}

// Evaluate applies the policy to a score map. The reject reason names the
// worst-scoring dimension so operators can see where a draft fell short.
func (p Policy) Evaluate(scores map[string]float64) Decision {
	decision := Decision{Scores: scores}
	if len(scores) == 0 {
		decision.Outcome = queue.OutcomeRejected
		decision.RejectReason = "no dimensions scored"
		return decision
	}

	var sum float64
	worstName := ""
	worstScore := 2.0
	for _, name := range sortedDimensions(scores) {
		score := scores[name]
		sum += score
		if score < worstScore {
			worstName = name
			worstScore = score
		}
	}
	decision.Aggregate = sum / float64(len(scores))

	switch {
	case worstScore < p.DimensionFloor:
		decision.Outcome = queue.OutcomeRejected
		decision.RejectReason = fmt.Sprintf("dimension %s scored %.2f, below floor %.2f", worstName, worstScore, p.DimensionFloor)
	case decision.Aggregate < p.AcceptThreshold:
		decision.Outcome = queue.OutcomeRejected
		decision.RejectReason = fmt.Sprintf("aggregate %.2f below threshold %.2f, weakest dimension %s at %.2f", decision.Aggregate, p.AcceptThreshold, worstName, worstScore)
	default:
		decision.Outcome = queue.OutcomeAccepted
	}
	return decision
}

// sortedDimensions keeps the worst-dimension tiebreak deterministic when two
// dimensions share the lowest score.
func sortedDimensions(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
