package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type AnnotationRepository struct {
	db *gorm.DB
}

var _ ports.AnnotationRepository = (*AnnotationRepository)(nil)

func NewAnnotationRepository(db *gorm.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

func (r *AnnotationRepository) CreateAnnotation(ctx context.Context, annotation ports.AiAnnotation) (ports.AiAnnotation, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AiAnnotation{}, err
	}

	row := model.AiAnnotation{
		AnalysisID:  annotation.AnalysisID,
		HeatmapURL:  annotation.HeatmapURL,
		Description: annotation.Description,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.AiAnnotation{}, errs.Wrap(err, "insert annotation")
	}

	return mapAnnotation(row), nil
}

func (r *AnnotationRepository) GetAnnotationByAnalysis(ctx context.Context, analysisID uint64) (ports.AiAnnotation, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AiAnnotation{}, err
	}

	var row model.AiAnnotation
	if err := db.Where("analysis_id = ?", analysisID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AiAnnotation{}, ports.ErrAnnotationNotFound
		}
		return ports.AiAnnotation{}, errs.Wrap(err, "query annotation")
	}

	return mapAnnotation(row), nil
}

func mapAnnotation(row model.AiAnnotation) ports.AiAnnotation {
	return ports.AiAnnotation{
		AnnotationID: row.AnnotationID,
		AnalysisID:   row.AnalysisID,
		HeatmapURL:   row.HeatmapURL,
		Description:  row.Description,
	}
}
