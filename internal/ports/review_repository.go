package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrReviewNotFound = fmt.Errorf("doctor review not found: %w", diagnosis.ErrNotFound)

type DoctorReview struct {
	ReviewID         uint64
	AnalysisID       uint64
	DoctorID         uint64
	ValidationStatus string
	Comment          *string
	ReviewedAt       string
}

// ReviewUpdate enumerates the fields an amendment may touch.
type ReviewUpdate struct {
	ValidationStatus *string
	Comment          *string
	ReviewedAt       *string
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review DoctorReview) (DoctorReview, error)
	GetReview(ctx context.Context, reviewID uint64) (DoctorReview, error)
	// FindReviewByAnalysis reports the analysis's review, if one exists (1:1).
	FindReviewByAnalysis(ctx context.Context, analysisID uint64) (DoctorReview, bool, error)
	UpdateReview(ctx context.Context, reviewID uint64, update ReviewUpdate) error
	ListReviewsByStatus(ctx context.Context, validationStatus string) ([]DoctorReview, error)
	ListReviewsByDoctor(ctx context.Context, doctorID uint64) ([]DoctorReview, error)
	CountReviewsByStatus(ctx context.Context, validationStatus string) (int64, error)
}
