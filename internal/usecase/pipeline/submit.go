package pipeline

import (
	"context"
	"errors"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Submit creates an analysis for an image against the active model version
// and immediately drives it to processing. The analysis transition and the
// image status change apply in one transaction; a partial update would break
// the image/analysis consistency invariant.
//
// An image with a live (non-failed) analysis conflicts: completed analyses
// are permanent, only a failed one frees the image for a fresh submit.
func (s *Service) Submit(ctx context.Context, imageID uint64) (ports.AiAnalysis, error) {
	if ctx == nil {
		return ports.AiAnalysis{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.AiAnalysis{}, errs.Wrap(err, "check context")
	}

	var analysis ports.AiAnalysis
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		image, err := s.images.GetImage(txCtx, imageID)
		if err != nil {
			return err
		}

		if _, live, err := s.analyses.FindLiveAnalysisByImage(txCtx, image.ImageID); err != nil {
			return err
		} else if live {
			return diagnosis.ErrAnalysisLive
		}

		active, err := s.models.GetActiveModelVersion(txCtx)
		if err != nil {
			if errors.Is(err, ports.ErrModelVersionNotFound) {
				return diagnosis.ErrNoActiveModel
			}
			return err
		}

		analysis, err = s.analyses.CreateAnalysis(txCtx, ports.AiAnalysis{
			ImageID:        image.ImageID,
			ModelVersionID: active.ModelVersionID,
			AnalysisTime:   nowUTCString(),
			Status:         string(diagnosis.AnalysisStatusPending),
		})
		if err != nil {
			return err
		}

		processing := string(diagnosis.AnalysisStatusProcessing)
		if err := s.analyses.UpdateAnalysis(txCtx, analysis.AnalysisID, ports.AnalysisUpdate{
			Status: &processing,
		}); err != nil {
			return err
		}
		if err := s.images.UpdateImageStatus(txCtx, image.ImageID, string(diagnosis.ImageStatusProcessing)); err != nil {
			return err
		}

		analysis.Status = processing
		return nil
	}); err != nil {
		return ports.AiAnalysis{}, err
	}

	return analysis, nil
}
