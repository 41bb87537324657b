// Package pipeline drives a retinal image from intake through AI analysis:
// image upload, analysis submit/complete/fail, and the queries downstream
// consumers need.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

const (
	notifyAnalysisCompleted = "analysis_completed"
	notifyAnalysisFailed    = "analysis_failed"
)

type Service struct {
	images      ports.ImageRepository
	models      ports.ModelVersionRepository
	analyses    ports.AnalysisRepository
	results     ports.ResultRepository
	annotations ports.AnnotationRepository
	uow         ports.UnitOfWork
	scorer      ports.Scorer
	sink        ports.NotificationSink
}

func NewService(
	images ports.ImageRepository,
	models ports.ModelVersionRepository,
	analyses ports.AnalysisRepository,
	results ports.ResultRepository,
	annotations ports.AnnotationRepository,
	uow ports.UnitOfWork,
	scorer ports.Scorer,
	sink ports.NotificationSink,
) *Service {
	return &Service{
		images:      images,
		models:      models,
		analyses:    analyses,
		results:     results,
		annotations: annotations,
		uow:         uow,
		scorer:      scorer,
		sink:        sink,
	}
}

type UploadImageInput struct {
	PatientID  uint64
	ClinicID   uint64
	UploadedBy uint64
	ImageType  string
	EyeSide    string
	ImageURL   string
}

type CompleteInput struct {
	AnalysisID  uint64
	Findings    []diagnosis.Finding
	HeatmapURL  string
	Description string
}

// Completion is the enriched view of a finished analysis. Advisory and
// Warnings come from the recommendation engine and are not persisted on the
// analysis itself.
type Completion struct {
	Analysis   ports.AiAnalysis
	Results    []ports.AiResult
	Annotation ports.AiAnnotation
	Summary    diagnosis.RiskSummary
	Advisory   string
	Warnings   []string
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// elapsedSeconds computes non-negative whole seconds since a stored RFC3339
// timestamp. Unparseable input counts as zero.
func elapsedSeconds(since string, now time.Time) int64 {
	start, err := time.Parse(time.RFC3339Nano, since)
	if err != nil {
		return 0
	}

	seconds := int64(now.Sub(start) / time.Second)
	if seconds < 0 {
		return 0
	}
	return seconds
}

// notifyBestEffort delivers a milestone notification without letting sink
// failures affect the pipeline outcome.
func (s *Service) notifyBestEffort(ctx context.Context, accountID uint64, notificationType string, content string) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Notify(ctx, accountID, notificationType, content); err != nil {
		logging.Warn(ctx, "notification delivery failed",
			slog.Uint64("account_id", accountID),
			slog.String("type", notificationType),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}
