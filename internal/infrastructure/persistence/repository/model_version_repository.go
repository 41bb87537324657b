package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type ModelVersionRepository struct {
	db *gorm.DB
}

var _ ports.ModelVersionRepository = (*ModelVersionRepository)(nil)

func NewModelVersionRepository(db *gorm.DB) *ModelVersionRepository {
	return &ModelVersionRepository{db: db}
}

func (r *ModelVersionRepository) CreateModelVersion(ctx context.Context, version ports.ModelVersion) (ports.ModelVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ModelVersion{}, err
	}

	row := model.AiModelVersion{
		ModelName:       version.ModelName,
		Version:         version.Version,
		ThresholdConfig: datatypes.JSON(version.ThresholdConfig),
		TrainedAt:       version.TrainedAt,
		ActiveFlag:      version.Active,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.ModelVersion{}, errs.Wrap(err, "insert model version")
	}

	return mapModelVersion(row), nil
}

func (r *ModelVersionRepository) GetModelVersion(ctx context.Context, modelVersionID uint64) (ports.ModelVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ModelVersion{}, err
	}
	return takeModelVersion(db.Where("ai_model_version_id = ?", modelVersionID))
}

func (r *ModelVersionRepository) GetActiveModelVersion(ctx context.Context) (ports.ModelVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ModelVersion{}, err
	}
	return takeModelVersion(db.Where("active_flag = ?", true))
}

func (r *ModelVersionRepository) GetModelVersionByVersion(ctx context.Context, version string) (ports.ModelVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.ModelVersion{}, err
	}
	return takeModelVersion(db.Where("version = ?", version).Order("ai_model_version_id desc"))
}

func (r *ModelVersionRepository) ListModelVersions(ctx context.Context) ([]ports.ModelVersion, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.AiModelVersion
	if err := db.Order("ai_model_version_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query model versions")
	}

	items := make([]ports.ModelVersion, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapModelVersion(row))
	}
	return items, nil
}

func (r *ModelVersionRepository) DeactivateModelVersions(ctx context.Context) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	if err := db.Model(&model.AiModelVersion{}).
		Where("active_flag = ?", true).
		Update("active_flag", false).Error; err != nil {
		return errs.Wrap(err, "deactivate model versions")
	}
	return nil
}

func (r *ModelVersionRepository) SetModelVersionActive(ctx context.Context, modelVersionID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.AiModelVersion{}).
		Where("ai_model_version_id = ?", modelVersionID).
		Update("active_flag", true)
	if res.Error != nil {
		return errs.Wrap(res.Error, "set model version active")
	}
	if res.RowsAffected == 0 {
		return ports.ErrModelVersionNotFound
	}
	return nil
}

func (r *ModelVersionRepository) DeleteModelVersion(ctx context.Context, modelVersionID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Where("ai_model_version_id = ?", modelVersionID).Delete(&model.AiModelVersion{})
	if res.Error != nil {
		return errs.Wrap(res.Error, "delete model version")
	}
	if res.RowsAffected == 0 {
		return ports.ErrModelVersionNotFound
	}
	return nil
}

func (r *ModelVersionRepository) CountModelVersions(ctx context.Context) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.AiModelVersion{}).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count model versions")
	}
	return count, nil
}

func takeModelVersion(query *gorm.DB) (ports.ModelVersion, error) {
	var row model.AiModelVersion
	if err := query.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ModelVersion{}, ports.ErrModelVersionNotFound
		}
		return ports.ModelVersion{}, errs.Wrap(err, "query model version")
	}
	return mapModelVersion(row), nil
}

func mapModelVersion(row model.AiModelVersion) ports.ModelVersion {
	return ports.ModelVersion{
		ModelVersionID:  row.ModelVersionID,
		ModelName:       row.ModelName,
		Version:         row.Version,
		ThresholdConfig: []byte(row.ThresholdConfig),
		TrainedAt:       row.TrainedAt,
		Active:          row.ActiveFlag,
	}
}
