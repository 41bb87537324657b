package repository

import (
	"context"

	"gorm.io/gorm"

	"retinoscan/internal/errs"
	"retinoscan/internal/infrastructure/persistence/model"
	"retinoscan/internal/ports"
)

type NotificationRepository struct {
	db *gorm.DB
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateNotification(ctx context.Context, notification ports.Notification) (ports.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Notification{}, err
	}

	row := model.Notification{
		AccountID: notification.AccountID,
		Type:      notification.Type,
		Content:   notification.Content,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Notification{}, errs.Wrap(err, "insert notification")
	}

	return mapNotification(row), nil
}

func (r *NotificationRepository) ListNotificationsByAccount(ctx context.Context, accountID uint64, unreadOnly bool, limit int) ([]ports.Notification, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Where("account_id = ?", accountID).Order("notification_id desc")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query notifications")
	}

	items := make([]ports.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, notificationID uint64) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Notification{}).
		Where("notification_id = ?", notificationID).
		Update("is_read", true)
	if res.Error != nil {
		return errs.Wrap(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllNotificationsRead(ctx context.Context, accountID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	res := db.Model(&model.Notification{}).
		Where("account_id = ? AND is_read = ?", accountID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, errs.Wrap(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepository) CountUnreadNotifications(ctx context.Context, accountID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Notification{}).
		Where("account_id = ? AND is_read = ?", accountID, false).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count unread notifications")
	}
	return count, nil
}

func mapNotification(row model.Notification) ports.Notification {
	return ports.Notification{
		NotificationID: row.NotificationID,
		AccountID:      row.AccountID,
		Type:           row.Type,
		Content:        row.Content,
		IsRead:         row.IsRead,
		CreatedAt:      row.CreatedAt,
	}
}
