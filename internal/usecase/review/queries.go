package review

import (
	"context"
	"errors"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// PendingItem pairs a completed analysis with its image so the worklist can
// show patient and eye context without further lookups.
type PendingItem struct {
	Analysis ports.AiAnalysis
	Image    ports.RetinalImage
}

// PendingReviews lists completed analyses that no doctor has reviewed yet,
// oldest first.
func (s *Service) PendingReviews(ctx context.Context) ([]PendingItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	completed, err := s.analyses.ListAnalysesByStatus(ctx, string(diagnosis.AnalysisStatusCompleted))
	if err != nil {
		return nil, err
	}

	items := make([]PendingItem, 0, len(completed))
	for _, analysis := range completed {
		if _, reviewed, err := s.reviews.FindReviewByAnalysis(ctx, analysis.AnalysisID); err != nil {
			return nil, err
		} else if reviewed {
			continue
		}

		image, err := s.images.GetImage(ctx, analysis.ImageID)
		if err != nil {
			return nil, err
		}
		items = append(items, PendingItem{Analysis: analysis, Image: image})
	}
	return items, nil
}

// Statistics aggregates reviewer feedback, the signal used to judge whether
// a model version's output holds up under human validation.
type Statistics struct {
	Approved     int64
	Rejected     int64
	Total        int64
	ApprovalRate float64
	Reports      int64
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	if ctx == nil {
		return Statistics{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Statistics{}, errs.Wrap(err, "check context")
	}

	var stats Statistics
	var err error
	if stats.Approved, err = s.reviews.CountReviewsByStatus(ctx, string(diagnosis.ReviewStatusApproved)); err != nil {
		return Statistics{}, err
	}
	if stats.Rejected, err = s.reviews.CountReviewsByStatus(ctx, string(diagnosis.ReviewStatusRejected)); err != nil {
		return Statistics{}, err
	}
	stats.Total = stats.Approved + stats.Rejected
	if stats.Total > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(stats.Total)
	}
	if stats.Reports, err = s.reports.CountReports(ctx); err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

func (s *Service) GetReview(ctx context.Context, reviewID uint64) (ports.DoctorReview, error) {
	if ctx == nil {
		return ports.DoctorReview{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.DoctorReview{}, errs.Wrap(err, "check context")
	}
	return s.reviews.GetReview(ctx, reviewID)
}

func (s *Service) ReviewsByDoctor(ctx context.Context, doctorID uint64) ([]ports.DoctorReview, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if doctorID == 0 {
		return nil, fmt.Errorf("doctor id is required: %w", diagnosis.ErrValidation)
	}
	return s.reviews.ListReviewsByDoctor(ctx, doctorID)
}

func (s *Service) GetReport(ctx context.Context, reportID uint64) (ports.MedicalReport, error) {
	if ctx == nil {
		return ports.MedicalReport{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.MedicalReport{}, errs.Wrap(err, "check context")
	}
	return s.reports.GetReport(ctx, reportID)
}

func (s *Service) ReportsByPatient(ctx context.Context, patientID uint64, limit int) ([]ports.MedicalReport, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if patientID == 0 {
		return nil, fmt.Errorf("patient id is required: %w", diagnosis.ErrValidation)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.reports.ListReportsByPatient(ctx, patientID, limit)
}
