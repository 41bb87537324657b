package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"retinoscan/internal/bootstrap/config"
	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// HTTPScorer calls the external AI scoring service over HTTP/JSON. Every
// failure — transport, timeout, non-2xx, malformed body — surfaces as
// diagnosis.ErrExternalService so the orchestrator can absorb it into the
// failed state.
type HTTPScorer struct {
	endpoint string
	client   *http.Client
}

var _ ports.Scorer = (*HTTPScorer)(nil)

func NewHTTPScorer(cfg config.ScorerConfig) *HTTPScorer {
	return &HTTPScorer{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type scoreRequest struct {
	ImageURL        string          `json:"image_url"`
	ThresholdConfig json.RawMessage `json:"threshold_config,omitempty"`
}

type scoreFinding struct {
	DiseaseType     string  `json:"disease_type"`
	RiskLevel       string  `json:"risk_level"`
	ConfidenceScore float64 `json:"confidence_score"`
}

type scoreResponse struct {
	Findings    []scoreFinding `json:"findings"`
	HeatmapURL  string         `json:"heatmap_url"`
	Description string         `json:"description"`
}

func (s *HTTPScorer) Score(ctx context.Context, imageURL string, thresholdConfig []byte) (ports.ScoreOutcome, error) {
	if ctx == nil {
		return ports.ScoreOutcome{}, errors.New("context is required")
	}

	payload, err := json.Marshal(scoreRequest{
		ImageURL:        imageURL,
		ThresholdConfig: json.RawMessage(thresholdConfig),
	})
	if err != nil {
		return ports.ScoreOutcome{}, errs.Wrap(err, "encode score request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.ScoreOutcome{}, errs.Wrap(err, "build score request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ports.ScoreOutcome{}, fmt.Errorf("call scorer: %v: %w", err, diagnosis.ErrExternalService)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.ScoreOutcome{}, fmt.Errorf("read scorer response: %v: %w", err, diagnosis.ErrExternalService)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ports.ScoreOutcome{}, fmt.Errorf("scorer returned status %d: %w", resp.StatusCode, diagnosis.ErrExternalService)
	}

	var decoded scoreResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.ScoreOutcome{}, fmt.Errorf("decode scorer response: %v: %w", err, diagnosis.ErrExternalService)
	}
	if decoded.HeatmapURL == "" {
		return ports.ScoreOutcome{}, fmt.Errorf("scorer response missing heatmap url: %w", diagnosis.ErrExternalService)
	}

	outcome := ports.ScoreOutcome{
		HeatmapURL:  decoded.HeatmapURL,
		Description: decoded.Description,
	}
	for _, f := range decoded.Findings {
		outcome.Findings = append(outcome.Findings, diagnosis.Finding{
			DiseaseType: f.DiseaseType,
			RiskLevel:   diagnosis.RiskLevel(f.RiskLevel),
			Confidence:  f.ConfidenceScore,
		})
	}

	return outcome, nil
}
