package ports

import (
	"context"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
)

var ErrNotificationNotFound = fmt.Errorf("notification not found: %w", diagnosis.ErrNotFound)

type Notification struct {
	NotificationID uint64
	AccountID      uint64
	Type           string
	Content        string
	IsRead         bool
	CreatedAt      string
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) (Notification, error)
	ListNotificationsByAccount(ctx context.Context, accountID uint64, unreadOnly bool, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID uint64) error
	MarkAllNotificationsRead(ctx context.Context, accountID uint64) (int64, error)
	CountUnreadNotifications(ctx context.Context, accountID uint64) (int64, error)
}
