package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Fail marks a processing analysis as failed with a retained reason and sets
// the image to error in the same transaction. There is no automatic retry —
// the scorer is external and possibly non-idempotent, so a re-run is an
// explicit fresh Submit after operator intervention.
func (s *Service) Fail(ctx context.Context, analysisID uint64, reason string) (ports.AiAnalysis, error) {
	if ctx == nil {
		return ports.AiAnalysis{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.AiAnalysis{}, errs.Wrap(err, "check context")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ports.AiAnalysis{}, fmt.Errorf("failure reason is required: %w", diagnosis.ErrValidation)
	}

	var failed ports.AiAnalysis
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		analysis, err := s.analyses.GetAnalysis(txCtx, analysisID)
		if err != nil {
			return err
		}
		if err := diagnosis.CheckTransition(diagnosis.AnalysisStatus(analysis.Status), diagnosis.AnalysisStatusFailed); err != nil {
			return err
		}

		status := string(diagnosis.AnalysisStatusFailed)
		if err := s.analyses.UpdateAnalysis(txCtx, analysis.AnalysisID, ports.AnalysisUpdate{
			Status:        &status,
			FailureReason: &reason,
		}); err != nil {
			return err
		}
		if err := s.images.UpdateImageStatus(txCtx, analysis.ImageID, string(diagnosis.ImageStatusError)); err != nil {
			return err
		}

		analysis.Status = status
		analysis.FailureReason = &reason
		failed = analysis
		return nil
	}); err != nil {
		return ports.AiAnalysis{}, err
	}

	return failed, nil
}
