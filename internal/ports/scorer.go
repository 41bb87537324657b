package ports

import (
	"context"

	"retinoscan/internal/domain/diagnosis"
)

// ScoreOutcome is what one scorer run yields: zero or more findings plus the
// visual explanation.
type ScoreOutcome struct {
	Findings    []diagnosis.Finding
	HeatmapURL  string
	Description string
}

// Scorer is the external AI inference boundary. Implementations must honour
// ctx cancellation; the orchestrator bounds every call with a timeout and
// treats expiry as a scorer failure.
type Scorer interface {
	Score(ctx context.Context, imageURL string, thresholdConfig []byte) (ScoreOutcome, error)
}
