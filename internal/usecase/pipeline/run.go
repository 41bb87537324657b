package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// RunOutcome reports one end-to-end scoring run. A scorer failure is not an
// error: it is absorbed into the failed state with the reason retained.
type RunOutcome struct {
	Analysis      ports.AiAnalysis
	Completion    *Completion
	Failed        bool
	FailureReason string
}

// Run submits the image, invokes the external scorer, and completes or fails
// the analysis with the result. The scorer call is bounded by the adapter's
// timeout; expiry counts as a scorer failure.
func (s *Service) Run(ctx context.Context, imageID uint64) (RunOutcome, error) {
	if ctx == nil {
		return RunOutcome{}, errors.New("context is required")
	}
	if s.scorer == nil {
		return RunOutcome{}, errors.New("scorer is required")
	}

	analysis, err := s.Submit(ctx, imageID)
	if err != nil {
		return RunOutcome{}, err
	}

	image, err := s.images.GetImage(ctx, analysis.ImageID)
	if err != nil {
		return RunOutcome{}, err
	}

	modelVersion, err := s.models.GetModelVersion(ctx, analysis.ModelVersionID)
	if err != nil {
		return RunOutcome{}, err
	}

	outcome, err := s.scorer.Score(ctx, image.ImageURL, modelVersion.ThresholdConfig)
	if err != nil {
		logging.Warn(ctx, "scorer call failed",
			slog.Uint64("analysis_id", analysis.AnalysisID),
			slog.Any("err", errs.Loggable(err)),
		)

		failed, failErr := s.Fail(ctx, analysis.AnalysisID, err.Error())
		if failErr != nil {
			return RunOutcome{}, errs.Wrap(failErr, "fail analysis after scorer error")
		}

		s.notifyBestEffort(ctx, image.PatientID, notifyAnalysisFailed,
			"Your retinal image analysis could not be completed. The clinic will re-run it.")
		return RunOutcome{
			Analysis:      failed,
			Failed:        true,
			FailureReason: err.Error(),
		}, nil
	}

	completion, err := s.Complete(ctx, CompleteInput{
		AnalysisID:  analysis.AnalysisID,
		Findings:    outcome.Findings,
		HeatmapURL:  outcome.HeatmapURL,
		Description: outcome.Description,
	})
	if err != nil {
		// A malformed scorer payload is an external failure too; the analysis
		// must not stay stuck in processing.
		if errors.Is(err, diagnosis.ErrValidation) {
			failed, failErr := s.Fail(ctx, analysis.AnalysisID, "invalid scorer output: "+err.Error())
			if failErr != nil {
				return RunOutcome{}, errs.Wrap(failErr, "fail analysis after invalid scorer output")
			}
			return RunOutcome{
				Analysis:      failed,
				Failed:        true,
				FailureReason: err.Error(),
			}, nil
		}
		return RunOutcome{}, err
	}

	return RunOutcome{
		Analysis:   completion.Analysis,
		Completion: &completion,
	}, nil
}
