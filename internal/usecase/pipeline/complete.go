package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// Complete finishes a processing analysis with the scorer's output: it
// persists the findings and the annotation, records the processing duration,
// and flips the analysis/image pair to completed/analyzed atomically. The
// patient is notified best-effort after commit.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (Completion, error) {
	if ctx == nil {
		return Completion{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Completion{}, errs.Wrap(err, "check context")
	}

	heatmapURL := strings.TrimSpace(input.HeatmapURL)
	if heatmapURL == "" {
		return Completion{}, fmt.Errorf("heatmap url is required: %w", diagnosis.ErrValidation)
	}

	findings := make([]diagnosis.Finding, 0, len(input.Findings))
	for _, raw := range input.Findings {
		finding, err := diagnosis.ValidateFinding(raw)
		if err != nil {
			return Completion{}, err
		}
		findings = append(findings, finding)
	}

	var completion Completion
	var patientID uint64
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		analysis, err := s.analyses.GetAnalysis(txCtx, input.AnalysisID)
		if err != nil {
			return err
		}
		if err := diagnosis.CheckTransition(diagnosis.AnalysisStatus(analysis.Status), diagnosis.AnalysisStatusCompleted); err != nil {
			return err
		}

		image, err := s.images.GetImage(txCtx, analysis.ImageID)
		if err != nil {
			return err
		}
		patientID = image.PatientID

		rows := make([]ports.AiResult, 0, len(findings))
		for _, finding := range findings {
			rows = append(rows, ports.AiResult{
				AnalysisID:      analysis.AnalysisID,
				DiseaseType:     finding.DiseaseType,
				RiskLevel:       string(finding.RiskLevel),
				ConfidenceScore: finding.Confidence,
			})
		}
		created, err := s.results.CreateResults(txCtx, rows)
		if err != nil {
			return err
		}

		var description *string
		if desc := strings.TrimSpace(input.Description); desc != "" {
			description = &desc
		}
		annotation, err := s.annotations.CreateAnnotation(txCtx, ports.AiAnnotation{
			AnalysisID:  analysis.AnalysisID,
			HeatmapURL:  heatmapURL,
			Description: description,
		})
		if err != nil {
			return err
		}

		completed := string(diagnosis.AnalysisStatusCompleted)
		processingTime := elapsedSeconds(analysis.AnalysisTime, time.Now().UTC())
		if err := s.analyses.UpdateAnalysis(txCtx, analysis.AnalysisID, ports.AnalysisUpdate{
			Status:         &completed,
			ProcessingTime: &processingTime,
		}); err != nil {
			return err
		}
		if err := s.images.UpdateImageStatus(txCtx, analysis.ImageID, string(diagnosis.ImageStatusAnalyzed)); err != nil {
			return err
		}

		analysis.Status = completed
		analysis.ProcessingTime = &processingTime
		completion.Analysis = analysis
		completion.Results = created
		completion.Annotation = annotation
		return nil
	}); err != nil {
		return Completion{}, err
	}

	completion.Summary = diagnosis.Summarize(findings)
	completion.Advisory = advisoryFor(completion.Summary)
	completion.Warnings = diagnosis.Warn(
		completion.Summary.Overall,
		diagnosis.MaxConfidence(findings, completion.Summary.Overall),
	)

	s.notifyBestEffort(ctx, patientID, notifyAnalysisCompleted, completionNotice(completion))
	return completion, nil
}

func advisoryFor(summary diagnosis.RiskSummary) string {
	disease := ""
	if len(summary.DiseaseTypes) > 0 {
		disease = summary.DiseaseTypes[0]
	}

	// Summary levels are always valid, so Advise cannot fail here.
	advisory, err := diagnosis.Advise(summary.Overall, disease)
	if err != nil {
		return ""
	}
	return advisory
}

func completionNotice(completion Completion) string {
	if len(completion.Summary.DiseaseTypes) == 0 {
		return "Your retinal image analysis is complete. No disease findings were reported."
	}
	return fmt.Sprintf(
		"Your retinal image analysis is complete. Overall risk: %s (%s). %s",
		completion.Summary.Overall,
		strings.Join(completion.Summary.DiseaseTypes, ", "),
		completion.Advisory,
	)
}
