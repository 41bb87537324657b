// Package review implements the doctor review gate and the medical report
// generation it unlocks.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"retinoscan/internal/bootstrap/logging"
	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

const notifyReportReady = "report_ready"

type Service struct {
	analyses ports.AnalysisRepository
	images   ports.ImageRepository
	results  ports.ResultRepository
	reviews  ports.ReviewRepository
	reports  ports.ReportRepository
	uow      ports.UnitOfWork
	sink     ports.NotificationSink

	reportBaseURL string
}

func NewService(
	analyses ports.AnalysisRepository,
	images ports.ImageRepository,
	results ports.ResultRepository,
	reviews ports.ReviewRepository,
	reports ports.ReportRepository,
	uow ports.UnitOfWork,
	sink ports.NotificationSink,
	reportBaseURL string,
) *Service {
	return &Service{
		analyses:      analyses,
		images:        images,
		results:       results,
		reviews:       reviews,
		reports:       reports,
		uow:           uow,
		sink:          sink,
		reportBaseURL: strings.TrimRight(reportBaseURL, "/"),
	}
}

type SubmitReviewInput struct {
	AnalysisID uint64
	DoctorID   uint64
	Decision   string
	Comment    string
}

type AmendReviewInput struct {
	ReviewID uint64
	Decision string
	Comment  string
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseDecision accepts the two verdicts a doctor can submit. The stored
// vocabulary also contains "pending", but pending is never a legal decision.
func parseDecision(raw string) (diagnosis.ReviewStatus, error) {
	switch decision := diagnosis.ReviewStatus(strings.ToLower(strings.TrimSpace(raw))); decision {
	case diagnosis.ReviewStatusApproved, diagnosis.ReviewStatusRejected:
		return decision, nil
	default:
		return "", fmt.Errorf("invalid review decision %q: %w", raw, diagnosis.ErrValidation)
	}
}

// notifyBestEffort delivers a milestone notification without letting sink
// failures affect the review outcome.
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
