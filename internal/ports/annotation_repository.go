package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrAnnotationNotFound = fmt.Errorf("ai annotation not found: %w", diagnosis.ErrNotFound)

type AiAnnotation struct {
	AnnotationID uint64
	AnalysisID   uint64
	HeatmapURL   string
	Description  *string
}

type AnnotationRepository interface {
	CreateAnnotation(ctx context.Context, annotation AiAnnotation) (AiAnnotation, error)
	GetAnnotationByAnalysis(ctx context.Context, analysisID uint64) (AiAnnotation, error)
}
