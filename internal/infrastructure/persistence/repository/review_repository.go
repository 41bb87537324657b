package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type ReviewRepository struct {
	db *gorm.DB
}

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review ports.DoctorReview) (ports.DoctorReview, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DoctorReview{}, err
	}

	row := model.DoctorReview{
		AnalysisID:       review.AnalysisID,
		DoctorID:         review.DoctorID,
		ValidationStatus: review.ValidationStatus,
		Comment:          review.Comment,
		ReviewedAt:       review.ReviewedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.DoctorReview{}, errs.Wrap(err, "insert doctor review")
	}

	return mapReview(row), nil
}

func (r *ReviewRepository) GetReview(ctx context.Context, reviewID uint64) (ports.DoctorReview, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DoctorReview{}, err
	}

	var row model.DoctorReview
	if err := db.Where("review_id = ?", reviewID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DoctorReview{}, ports.ErrReviewNotFound
		}
		return ports.DoctorReview{}, errs.Wrap(err, "query doctor review")
	}

	return mapReview(row), nil
}

func (r *ReviewRepository) FindReviewByAnalysis(ctx context.Context, analysisID uint64) (ports.DoctorReview, bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.DoctorReview{}, false, err
	}

	var row model.DoctorReview
	if err := db.Where("analysis_id = ?", analysisID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.DoctorReview{}, false, nil
		}
		return ports.DoctorReview{}, false, errs.Wrap(err, "query review by analysis")
	}

	return mapReview(row), true, nil
}

func (r *ReviewRepository) UpdateReview(ctx context.Context, reviewID uint64, update ports.ReviewUpdate) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if update.ValidationStatus != nil {
		fields["validation_status"] = *update.ValidationStatus
	}
	if update.Comment != nil {
		fields["comment"] = *update.Comment
	}
	if update.ReviewedAt != nil {
		fields["reviewed_at"] = *update.ReviewedAt
	}
	if len(fields) == 0 {
		return nil
	}

	res := db.Model(&model.DoctorReview{}).Where("review_id = ?", reviewID).Updates(fields)
	if res.Error != nil {
		return errs.Wrap(res.Error, "update doctor review")
	}
	if res.RowsAffected == 0 {
		return ports.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) ListReviewsByStatus(ctx context.Context, validationStatus string) ([]ports.DoctorReview, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.DoctorReview
	if err := db.Where("validation_status = ?", validationStatus).Order("review_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reviews by status")
	}

	return mapReviews(rows), nil
}

func (r *ReviewRepository) ListReviewsByDoctor(ctx context.Context, doctorID uint64) ([]ports.DoctorReview, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.DoctorReview
	if err := db.Where("doctor_id = ?", doctorID).Order("review_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query reviews by doctor")
	}

	return mapReviews(rows), nil
}

func (r *ReviewRepository) CountReviewsByStatus(ctx context.Context, validationStatus string) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.DoctorReview{}).
		Where("validation_status = ?", validationStatus).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count reviews")
	}
	return count, nil
}

func mapReviews(rows []model.DoctorReview) []ports.DoctorReview {
	items := make([]ports.DoctorReview, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapReview(row))
	}
	return items
}

func mapReview(row model.DoctorReview) ports.DoctorReview {
	return ports.DoctorReview{
		ReviewID:         row.ReviewID,
		AnalysisID:       row.AnalysisID,
		DoctorID:         row.DoctorID,
		ValidationStatus: row.ValidationStatus,
		Comment:          row.Comment,
		ReviewedAt:       row.ReviewedAt,
	}
}
