package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type ReportRepository struct {
	db *gorm.DB
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) CreateReport(ctx context.Context, report ports.MedicalReport) (ports.MedicalReport, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.MedicalReport{}, err
	}

	row := model.MedicalReport{
		PatientID:  report.PatientID,
		AnalysisID: report.AnalysisID,
		DoctorID:   report.DoctorID,
		ReportURL:  report.ReportURL,
		CreatedAt:  report.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.MedicalReport{}, errs.Wrap(err, "insert medical report")
	}

	return mapReport(row), nil
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID uint64) (ports.MedicalReport, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.MedicalReport{}, err
	}

	var row model.MedicalReport
	if err := db.Where("report_id = ?", reportID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MedicalReport{}, ports.ErrReportNotFound
		}
		return ports.MedicalReport{}, errs.Wrap(err, "query medical report")
	}

	return mapReport(row), nil
}

func (r *ReportRepository) FindReportByAnalysis(ctx context.Context, analysisID uint64) (ports.MedicalReport, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.MedicalReport{}, false, err
	}

	var row model.MedicalReport
	if err := db.Where("analysis_id = ?", analysisID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MedicalReport{}, false, nil
		}
		return ports.MedicalReport{}, false, errs.Wrap(err, "query report by analysis")
	}

	return mapReport(row), true, nil
}

func (r *ReportRepository) ListReportsByPatient(ctx context.Context, patientID uint64, limit int) ([]ports.MedicalReport, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("patient_id = ?", patientID).Order("report_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.MedicalReport
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reports by patient")
	}

	items := make([]ports.MedicalReport, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReport(row))
	}
	return items, nil
}

func (r *ReportRepository) CountReports(ctx context.Context) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.MedicalReport{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count medical reports")
	}
	return count, nil
}

func mapReport(row model.MedicalReport) ports.MedicalReport {
	return ports.MedicalReport{
		ReportID:   row.ReportID,
		PatientID:  row.PatientID,
		AnalysisID: row.AnalysisID,
		DoctorID:   row.DoctorID,
		ReportURL:  row.ReportURL,
		CreatedAt:  row.CreatedAt,
	}
}
