package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrReportNotFound = fmt.Errorf("medical report not found: %w", diagnosis.ErrNotFound)

type MedicalReport struct {
	ReportID   uint64
	PatientID  uint64
	AnalysisID uint64
	DoctorID   uint64
	ReportURL  string
	CreatedAt  string
}

type ReportRepository interface {
	CreateReport(ctx context.Context, report MedicalReport) (MedicalReport, error)
	GetReport(ctx context.Context, reportID uint64) (MedicalReport, error)
	// FindReportByAnalysis reports the analysis's report, if one exists (1:1).
	FindReportByAnalysis(ctx context.Context, analysisID uint64) (MedicalReport, bool, error)
	ListReportsByPatient(ctx context.Context, patientID uint64, limit int) ([]MedicalReport, error)
	CountReports(ctx context.Context) (int64, error)
}
