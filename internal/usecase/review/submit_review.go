package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// SubmitReview records a doctor's verdict on a completed analysis. Each
// analysis takes at most one review, and a rejection must carry a comment
// explaining it.
func (s *Service) SubmitReview(ctx context.Context, in SubmitReviewInput) (ports.DoctorReview, error) {
	if ctx == nil {
		return ports.DoctorReview{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.DoctorReview{}, errs.Wrap(err, "check context")
	}

	if in.AnalysisID == 0 {
		return ports.DoctorReview{}, fmt.Errorf("analysis id is required: %w", diagnosis.ErrValidation)
	}
	if in.DoctorID == 0 {
		return ports.DoctorReview{}, fmt.Errorf("doctor id is required: %w", diagnosis.ErrValidation)
	}
	decision, err := parseDecision(in.Decision)
	if err != nil {
		return ports.DoctorReview{}, err
	}
	comment := strings.TrimSpace(in.Comment)
	if decision == diagnosis.ReviewStatusRejected && comment == "" {
		return ports.DoctorReview{}, diagnosis.ErrRejectionComment
	}

	var created ports.DoctorReview
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		analysis, err := s.analyses.GetAnalysis(txCtx, in.AnalysisID)
		if err != nil {
			return err
		}
		if analysis.Status != string(diagnosis.AnalysisStatusCompleted) {
			return errs.Wrapf(diagnosis.ErrNotReviewable,
				"analysis %d is %s, not completed", analysis.AnalysisID, analysis.Status)
		}

		if _, exists, err := s.reviews.FindReviewByAnalysis(txCtx, in.AnalysisID); err != nil {
			return err
		} else if exists {
			return diagnosis.ErrReviewExists
		}

		record := ports.DoctorReview{
			AnalysisID:       in.AnalysisID,
			DoctorID:         in.DoctorID,
			ValidationStatus: string(decision),
			ReviewedAt:       nowUTCString(),
		}
		if comment != "" {
			record.Comment = &comment
		}

		created, err = s.reviews.CreateReview(txCtx, record)
		return err
	}); err != nil {
		return ports.DoctorReview{}, err
	}

	return created, nil
}
