package repository

import (
	"context"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type ResultRepository struct {
	db *gorm.DB
}

var _ ports.ResultRepository = (*ResultRepository)(nil)

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) CreateResults(ctx context.Context, results []ports.AiResult) ([]ports.AiResult, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	rows := make([]model.AiResult, 0, len(results))
	for _, res := range results {
		rows = append(rows, model.AiResult{
			AnalysisID:      res.AnalysisID,
			DiseaseType:     res.DiseaseType,
			RiskLevel:       res.RiskLevel,
			ConfidenceScore: res.ConfidenceScore,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "insert analysis results")
	}

	return mapResults(rows), nil
}

func (r *ResultRepository) ListResultsByAnalysis(ctx context.Context, analysisID uint64) ([]ports.AiResult, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.AiResult
	if err := db.Where("analysis_id = ?", analysisID).Order("result_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query analysis results")
	}

	return mapResults(rows), nil
}

func mapResults(rows []model.AiResult) []ports.AiResult {
	items := make([]ports.AiResult, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.AiResult{
			ResultID:        row.ResultID,
			AnalysisID:      row.AnalysisID,
			DiseaseType:     row.DiseaseType,
			RiskLevel:       row.RiskLevel,
			ConfidenceScore: row.ConfidenceScore,
		})
	}
	return items
}
