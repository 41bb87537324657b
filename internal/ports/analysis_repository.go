package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrAnalysisNotFound = fmt.Errorf("ai analysis not found: %w", diagnosis.ErrNotFound)

type AiAnalysis struct {
	AnalysisID     uint64
	ImageID        uint64
	ModelVersionID uint64
	AnalysisTime   string
	Status         string
	// ProcessingTime is seconds from submit to completion; set only on completion.
	ProcessingTime *int64
	FailureReason  *string
}

// AnalysisUpdate enumerates the mutable analysis fields. Nil means "leave as
// is" — there is deliberately no free-form partial update.
type AnalysisUpdate struct {
	Status         *string
	ProcessingTime *int64
	FailureReason  *string
}

// AnalysisHistoryFilter supports patient history listings. Bounds are
// RFC3339 strings; empty means unbounded.
type AnalysisHistoryFilter struct {
	PatientID uint64
	Limit     int
	Offset    int
	Since     string
	Until     string
}

type AnalysisStatistics struct {
	Total                 int64
	CountByStatus         map[string]int64
	AverageProcessingTime float64
}

type AnalysisRepository interface {
	CreateAnalysis(ctx context.Context, analysis AiAnalysis) (AiAnalysis, error)
	GetAnalysis(ctx context.Context, analysisID uint64) (AiAnalysis, error)
	// FindLiveAnalysisByImage reports the image's current non-failed analysis,
	// if any. Failed rows are history and never block a new submit.
	FindLiveAnalysisByImage(ctx context.Context, imageID uint64) (AiAnalysis, bool, error)
	UpdateAnalysis(ctx context.Context, analysisID uint64, update AnalysisUpdate) error
	ListAnalysesByStatus(ctx context.Context, status string) ([]AiAnalysis, error)
	ListAnalysesByPatient(ctx context.Context, filter AnalysisHistoryFilter) ([]AiAnalysis, error)
	CountAnalysesByStatus(ctx context.Context, status string) (int64, error)
	AverageProcessingTime(ctx context.Context) (float64, error)
}
