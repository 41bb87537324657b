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

// AmendReview replaces an earlier verdict. Once a report has been generated
// from the review the verdict is consumed and can no longer change.
func (s *Service) AmendReview(ctx context.Context, in AmendReviewInput) (ports.DoctorReview, error) {
	if ctx == nil {
		return ports.DoctorReview{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.DoctorReview{}, errs.Wrap(err, "check context")
	}

	if in.ReviewID == 0 {
		return ports.DoctorReview{}, fmt.Errorf("review id is required: %w", diagnosis.ErrValidation)
	}
	decision, err := parseDecision(in.Decision)
	if err != nil {
		return ports.DoctorReview{}, err
	}
	comment := strings.TrimSpace(in.Comment)
	if decision == diagnosis.ReviewStatusRejected && comment == "" {
		return ports.DoctorReview{}, diagnosis.ErrRejectionComment
	}

	var amended ports.DoctorReview
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.reviews.GetReview(txCtx, in.ReviewID)
		if err != nil {
			return err
		}

		if _, consumed, err := s.reports.FindReportByAnalysis(txCtx, existing.AnalysisID); err != nil {
			return err
		} else if consumed {
			return errs.Wrapf(diagnosis.ErrReviewConsumed,
				"review %d already produced a report", in.ReviewID)
		}

		status := string(decision)
		reviewedAt := nowUTCString()
		if err := s.reviews.UpdateReview(txCtx, in.ReviewID, ports.ReviewUpdate{
			ValidationStatus: &status,
			Comment:          &comment,
			ReviewedAt:       &reviewedAt,
		}); err != nil {
			return err
		}

		amended, err = s.reviews.GetReview(txCtx, in.ReviewID)
		return err
	}); err != nil {
		return ports.DoctorReview{}, err
	}

	return amended, nil
}
