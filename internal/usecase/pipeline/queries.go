package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/ports"
)

// AnalysisDetail is the consumer view of an analysis: row, image, findings,
// annotation, and the aggregated risk.
type AnalysisDetail struct {
	Analysis   ports.AiAnalysis
	Image      ports.RetinalImage
	Results    []ports.AiResult
	Annotation *ports.AiAnnotation
	Summary    diagnosis.RiskSummary
}

func (s *Service) GetImage(ctx context.Context, imageID uint64) (ports.RetinalImage, error) {
	if ctx == nil {
		return ports.RetinalImage{}, errors.New("context is required")
	}
	return s.images.GetImage(ctx, imageID)
}

func (s *Service) ListImages(ctx context.Context, filter ports.ImageFilter) ([]ports.RetinalImage, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.images.ListImages(ctx, filter)
}

func (s *Service) GetAnalysis(ctx context.Context, analysisID uint64) (AnalysisDetail, error) {
	if ctx == nil {
		return AnalysisDetail{}, errors.New("context is required")
	}

	analysis, err := s.analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		return AnalysisDetail{}, err
	}

	image, err := s.images.GetImage(ctx, analysis.ImageID)
	if err != nil {
		return AnalysisDetail{}, err
	}

	results, err := s.results.ListResultsByAnalysis(ctx, analysisID)
	if err != nil {
		return AnalysisDetail{}, err
	}

	detail := AnalysisDetail{
		Analysis: analysis,
		Image:    image,
		Results:  results,
	}

	annotation, err := s.annotations.GetAnnotationByAnalysis(ctx, analysisID)
	if err == nil {
		detail.Annotation = &annotation
	} else if !errors.Is(err, ports.ErrAnnotationNotFound) {
		return AnalysisDetail{}, err
	}

	findings := make([]diagnosis.Finding, 0, len(results))
	for _, res := range results {
		findings = append(findings, diagnosis.Finding{
			DiseaseType: res.DiseaseType,
			RiskLevel:   diagnosis.RiskLevel(res.RiskLevel),
			Confidence:  res.ConfidenceScore,
		})
	}
	detail.Summary = diagnosis.Summarize(findings)

	return detail, nil
}

type PatientHistoryInput struct {
	PatientID uint64
	Limit     int
	Offset    int
	// StartDate/EndDate are inclusive YYYY-MM-DD bounds; empty means open.
	StartDate string
	EndDate   string
}

// PatientHistory lists a patient's analyses, newest first.
func (s *Service) PatientHistory(ctx context.Context, input PatientHistoryInput) ([]ports.AiAnalysis, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	if input.PatientID == 0 {
		return nil, fmt.Errorf("patient id is required: %w", diagnosis.ErrValidation)
	}

	limit := input.Limit
	if limit == 0 {
		limit = 50
	}
	if limit < 1 || limit > 1000 {
		return nil, fmt.Errorf("limit must be between 1 and 1000: %w", diagnosis.ErrValidation)
	}
	if input.Offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative: %w", diagnosis.ErrValidation)
	}

	filter := ports.AnalysisHistoryFilter{
		PatientID: input.PatientID,
		Limit:     limit,
		Offset:    input.Offset,
	}

	var start, end time.Time
	if input.StartDate != "" {
		var err error
		start, err = time.Parse("2006-01-02", input.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", input.StartDate, diagnosis.ErrValidation)
		}
		filter.Since = start.UTC().Format(time.RFC3339Nano)
	}
	if input.EndDate != "" {
		var err error
		end, err = time.Parse("2006-01-02", input.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", input.EndDate, diagnosis.ErrValidation)
		}
		filter.Until = end.AddDate(0, 0, 1).UTC().Format(time.RFC3339Nano)
	}
	if input.StartDate != "" && input.EndDate != "" && end.Before(start) {
		return nil, fmt.Errorf("end date must not be before start date: %w", diagnosis.ErrValidation)
	}

	return s.analyses.ListAnalysesByPatient(ctx, filter)
}

type Statistics struct {
	TotalAnalyses         int64
	AnalysesByStatus      map[string]int64
	ImagesByStatus        map[string]int64
	AverageProcessingTime float64
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	if ctx == nil {
		return Statistics{}, errors.New("context is required")
	}

	stats := Statistics{
		AnalysesByStatus: make(map[string]int64, 4),
		ImagesByStatus:   make(map[string]int64, 4),
	}

	for _, status := range []diagnosis.AnalysisStatus{
		diagnosis.AnalysisStatusPending,
		diagnosis.AnalysisStatusProcessing,
		diagnosis.AnalysisStatusCompleted,
		diagnosis.AnalysisStatusFailed,
	} {
		count, err := s.analyses.CountAnalysesByStatus(ctx, string(status))
		if err != nil {
			return Statistics{}, err
		}
		stats.AnalysesByStatus[string(status)] = count
		stats.TotalAnalyses += count
	}

	for _, status := range []diagnosis.ImageStatus{
		diagnosis.ImageStatusUploaded,
		diagnosis.ImageStatusProcessing,
		diagnosis.ImageStatusAnalyzed,
		diagnosis.ImageStatusError,
	} {
		count, err := s.images.CountImagesByStatus(ctx, string(status))
		if err != nil {
			return Statistics{}, err
		}
		stats.ImagesByStatus[string(status)] = count
	}

	avg, err := s.analyses.AverageProcessingTime(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats.AverageProcessingTime = avg

	return stats, nil
}
