package ports

import "context"

type AiResult struct {
	ResultID        uint64
	AnalysisID      uint64
	DiseaseType     string
	RiskLevel       string
	ConfidenceScore float64
}

type ResultRepository interface {
	// CreateResults persists all findings of one analysis in a single batch.
	CreateResults(ctx context.Context, results []AiResult) ([]AiResult, error)
	ListResultsByAnalysis(ctx context.Context, analysisID uint64) ([]AiResult, error)
}
