package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type ImageRepository struct {
	db *gorm.DB
}

var _ ports.ImageRepository = (*ImageRepository)(nil)

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) CreateImage(ctx context.Context, image ports.RetinalImage) (ports.RetinalImage, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.RetinalImage{}, err
	}

	row := model.RetinalImage{
		PatientID:  image.PatientID,
		ClinicID:   image.ClinicID,
		UploadedBy: image.UploadedBy,
		ImageType:  image.ImageType,
		EyeSide:    image.EyeSide,
		ImageURL:   image.ImageURL,
		UploadTime: image.UploadTime,
		Status:     image.Status,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.RetinalImage{}, errs.Wrap(err, "insert retinal image")
	}

	return mapImage(row), nil
}

func (r *ImageRepository) GetImage(ctx context.Context, imageID uint64) (ports.RetinalImage, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.RetinalImage{}, err
	}

	var row model.RetinalImage
	if err := db.Where("image_id = ?", imageID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RetinalImage{}, ports.ErrImageNotFound
		}
		return ports.RetinalImage{}, errs.Wrap(err, "query retinal image")
	}

	return mapImage(row), nil
}

func (r *ImageRepository) UpdateImageStatus(ctx context.Context, imageID uint64, status string) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.RetinalImage{}).
		Where("image_id = ?", imageID).
		Update("status", status)
	if res.Error != nil {
		return errs.Wrap(res.Error, "update retinal image status")
	}
	if res.RowsAffected == 0 {
		return ports.ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) ListImages(ctx context.Context, filter ports.ImageFilter) ([]ports.RetinalImage, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.RetinalImage{})
	if filter.PatientID != 0 {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.ClinicID != 0 {
		query = query.Where("clinic_id = ?", filter.ClinicID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []model.RetinalImage
	if err := query.Order("image_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query retinal images")
	}

	items := make([]ports.RetinalImage, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapImage(row))
	}
	return items, nil
}

func (r *ImageRepository) CountImagesByStatus(ctx context.Context, status string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.RetinalImage{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count retinal images")
	}
	return count, nil
}

func mapImage(row model.RetinalImage) ports.RetinalImage {
	return ports.RetinalImage{
		ImageID:    row.ImageID,
		PatientID:  row.PatientID,
		ClinicID:   row.ClinicID,
		UploadedBy: row.UploadedBy,
		ImageType:  row.ImageType,
		EyeSide:    row.EyeSide,
		ImageURL:   row.ImageURL,
		UploadTime: row.UploadTime,
		Status:     row.Status,
	}
}
