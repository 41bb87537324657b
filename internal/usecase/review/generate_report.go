package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// GenerateReport turns an approved review into a patient-facing medical
// report. The operation is idempotent: a second call for the same analysis
// returns the existing report instead of minting another URL.
func (s *Service) GenerateReport(ctx context.Context, analysisID uint64) (ports.MedicalReport, error) {
	if ctx == nil {
		return ports.MedicalReport{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.MedicalReport{}, errs.Wrap(err, "check context")
	}
	if analysisID == 0 {
		return ports.MedicalReport{}, fmt.Errorf("analysis id is required: %w", diagnosis.ErrValidation)
	}

	var (
		report  ports.MedicalReport
		existed bool
	)
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		analysis, err := s.analyses.GetAnalysis(txCtx, analysisID)
		if err != nil {
			return err
		}
		if analysis.Status != string(diagnosis.AnalysisStatusCompleted) {
			return errs.Wrapf(diagnosis.ErrNotReviewable,
				"analysis %d is %s, not completed", analysis.AnalysisID, analysis.Status)
		}

		verdict, reviewed, err := s.reviews.FindReviewByAnalysis(txCtx, analysisID)
		if err != nil {
			return err
		}
		if !reviewed || verdict.ValidationStatus != string(diagnosis.ReviewStatusApproved) {
			return errs.Wrapf(diagnosis.ErrReviewNotApproved, "analysis %d", analysisID)
		}

		if found, ok, err := s.reports.FindReportByAnalysis(txCtx, analysisID); err != nil {
			return err
		} else if ok {
			report = found
			existed = true
			return nil
		}

		image, err := s.images.GetImage(txCtx, analysis.ImageID)
		if err != nil {
			return err
		}

		report, err = s.reports.CreateReport(txCtx, ports.MedicalReport{
			PatientID:  image.PatientID,
			AnalysisID: analysisID,
			DoctorID:   verdict.DoctorID,
			ReportURL:  fmt.Sprintf("%s/reports/%s", s.reportBaseURL, uuid.NewString()),
			CreatedAt:  nowUTCString(),
		})
		return err
	}); err != nil {
		return ports.MedicalReport{}, err
	}

	if !existed {
		s.notifyBestEffort(ctx, report.PatientID, notifyReportReady, s.reportNotice(ctx, report))
	}
	return report, nil
}

// reportNotice builds the patient-facing message, including the overall risk
// when the findings are still readable. A results lookup failure degrades to
// the bare link rather than blocking delivery.
func (s *Service) reportNotice(ctx context.Context, report ports.MedicalReport) string {
	results, err := s.results.ListResultsByAnalysis(ctx, report.AnalysisID)
	if err != nil || len(results) == 0 {
		return fmt.Sprintf("Your medical report is ready: %s", report.ReportURL)
	}

	findings := make([]diagnosis.Finding, 0, len(results))
	for _, result := range results {
		findings = append(findings, diagnosis.Finding{
			DiseaseType: result.DiseaseType,
			RiskLevel:   diagnosis.RiskLevel(result.RiskLevel),
			Confidence:  result.ConfidenceScore,
		})
	}
	summary := diagnosis.Summarize(findings)
	return fmt.Sprintf("Your medical report is ready (overall risk: %s): %s",
		summary.Overall, report.ReportURL)
}
