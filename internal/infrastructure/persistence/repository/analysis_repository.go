package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type AnalysisRepository struct {
	db *gorm.DB
}

var _ ports.AnalysisRepository = (*AnalysisRepository)(nil)

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) CreateAnalysis(ctx context.Context, analysis ports.AiAnalysis) (ports.AiAnalysis, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AiAnalysis{}, err
	}

	row := model.AiAnalysis{
		ImageID:        analysis.ImageID,
		ModelVersionID: analysis.ModelVersionID,
		AnalysisTime:   analysis.AnalysisTime,
		Status:         analysis.Status,
		ProcessingTime: analysis.ProcessingTime,
		FailureReason:  analysis.FailureReason,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.AiAnalysis{}, errs.Wrap(err, "insert analysis")
	}

	return mapAnalysis(row), nil
}

func (r *AnalysisRepository) GetAnalysis(ctx context.Context, analysisID uint64) (ports.AiAnalysis, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AiAnalysis{}, err
	}

	var row model.AiAnalysis
	if err := db.Where("analysis_id = ?", analysisID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AiAnalysis{}, ports.ErrAnalysisNotFound
		}
		return ports.AiAnalysis{}, errs.Wrap(err, "query analysis")
	}

	return mapAnalysis(row), nil
}

func (r *AnalysisRepository) FindLiveAnalysisByImage(ctx context.Context, imageID uint64) (ports.AiAnalysis, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AiAnalysis{}, false, err
	}

	var row model.AiAnalysis
	if err := db.
		Where("image_id = ? AND status <> ?", imageID, string(diagnosis.AnalysisStatusFailed)).
		Order("analysis_id desc").
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AiAnalysis{}, false, nil
		}
		return ports.AiAnalysis{}, false, errs.Wrap(err, "query live analysis by image")
	}

	return mapAnalysis(row), true, nil
}

func (r *AnalysisRepository) UpdateAnalysis(ctx context.Context, analysisID uint64, update ports.AnalysisUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.ProcessingTime != nil {
		fields["processing_time"] = *update.ProcessingTime
	}
	if update.FailureReason != nil {
		fields["failure_reason"] = *update.FailureReason
	}
	if len(fields) == 0 {
		return nil
	}

	res := db.Model(&model.AiAnalysis{}).Where("analysis_id = ?", analysisID).Updates(fields)
	if res.Error != nil {
		return errs.Wrap(res.Error, "update analysis")
	}
	if res.RowsAffected == 0 {
		return ports.ErrAnalysisNotFound
	}
	return nil
}

func (r *AnalysisRepository) ListAnalysesByStatus(ctx context.Context, status string) ([]ports.AiAnalysis, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.AiAnalysis
	if err := db.Where("status = ?", status).Order("analysis_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query analyses by status")
	}

	return mapAnalyses(rows), nil
}

func (r *AnalysisRepository) ListAnalysesByPatient(ctx context.Context, filter ports.AnalysisHistoryFilter) ([]ports.AiAnalysis, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.AiAnalysis{}).
		Joins("JOIN retinal_images ON retinal_images.image_id = ai_analysis.image_id").
		Where("retinal_images.patient_id = ?", filter.PatientID)

	// RFC3339 UTC strings order lexicographically, so range bounds are plain
	// string comparisons.
	if filter.Since != "" {
		query = query.Where("ai_analysis.analysis_time >= ?", filter.Since)
	}
	if filter.Until != "" {
		query = query.Where("ai_analysis.analysis_time < ?", filter.Until)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []model.AiAnalysis
	if err := query.Order("ai_analysis.analysis_time desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query patient analyses")
	}

	return mapAnalyses(rows), nil
}

func (r *AnalysisRepository) CountAnalysesByStatus(ctx context.Context, status string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.AiAnalysis{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count analyses")
	}
	return count, nil
}

func (r *AnalysisRepository) AverageProcessingTime(ctx context.Context) (float64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var avg *float64
	if err := db.Model(&model.AiAnalysis{}).
		Where("processing_time IS NOT NULL").
		Select("AVG(processing_time)").
		Scan(&avg).Error; err != nil {
		return 0, errs.Wrap(err, "average processing time")
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func mapAnalyses(rows []model.AiAnalysis) []ports.AiAnalysis {
	items := make([]ports.AiAnalysis, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapAnalysis(row))
	}
	return items
}

func mapAnalysis(row model.AiAnalysis) ports.AiAnalysis {
	return ports.AiAnalysis{
		AnalysisID:     row.AnalysisID,
		ImageID:        row.ImageID,
		ModelVersionID: row.ModelVersionID,
		AnalysisTime:   row.AnalysisTime,
		Status:         row.Status,
		ProcessingTime: row.ProcessingTime,
		FailureReason:  row.FailureReason,
	}
}
