// Package inbox exposes the stored notification stream to its recipients.
package inbox

import (
	"context"
	"errors"
	"fmt"

	"retinoscan/internal/domain/diagnosis"
	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

const defaultListLimit = 50

type Service struct {
	notifications ports.NotificationRepository
}

func NewService(notifications ports.NotificationRepository) *Service {
	return &Service{notifications: notifications}
}

type ListInput struct {
	AccountID  uint64
	UnreadOnly bool
	Limit      int
}

// List returns an account's notifications, newest first.
func (s *Service) List(ctx context.Context, in ListInput) ([]ports.Notification, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	if in.AccountID == 0 {
		return nil, fmt.Errorf("account id is required: %w", diagnosis.ErrValidation)
	}
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	return s.notifications.ListNotificationsByAccount(ctx, in.AccountID, in.UnreadOnly, in.Limit)
}

func (s *Service) MarkRead(ctx context.Context, notificationID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if notificationID == 0 {
		return fmt.Errorf("notification id is required: %w", diagnosis.ErrValidation)
	}
	return s.notifications.MarkNotificationRead(ctx, notificationID)
}

// MarkAllRead reports how many notifications it flipped.
func (s *Service) MarkAllRead(ctx context.Context, accountID uint64) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if accountID == 0 {
		return 0, fmt.Errorf("account id is required: %w", diagnosis.ErrValidation)
	}
	return s.notifications.MarkAllNotificationsRead(ctx, accountID)
}

func (s *Service) UnreadCount(ctx context.Context, accountID uint64) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if accountID == 0 {
		return 0, fmt.Errorf("account id is required: %w", diagnosis.ErrValidation)
	}
	return s.notifications.CountUnreadNotifications(ctx, accountID)
}
