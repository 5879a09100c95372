package publish

import (
	"context"
)

// Metrics is one platform performance reading for a published object.
type Metrics struct {
	Views      int64
	Engagement float64
	RawJSON    string
}

// Adapter publishes a draft to one external platform and can later read
// back performance numbers for the published object. Publish returns the
// platform-assigned identifier on success.
type Adapter interface {
	Name() string
	Publish(ctx context.Context, input Input) (externalRef string, err error)
	FetchMetrics(ctx context.Context, externalRef string) (*Metrics, error)
}

// Input carries everything an adapter needs to build its platform request.
type Input struct {
	Title        string
	Body         string
	Summary      string
	Tags         []string
	Categories   []string
	CallToAction string
	ArtifactPath string
}
