package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"retinoscan/internal/errs"
	"retinoscan/internal/ports"
)

// StoreSink delivers notifications by inserting rows into the notifications
// table, where the account's inbox picks them up.
type StoreSink struct {
	repo ports.NotificationRepository
}

var _ ports.NotificationSink = (*StoreSink)(nil)

func NewStoreSink(repo ports.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Notify(ctx context.Context, accountID uint64, notificationType string, content string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if accountID == 0 {
		return errors.New("account id is required")
	}

	notificationType = strings.TrimSpace(notificationType)
	if notificationType == "" {
		return errors.New("notification type is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("notification content is required")
	}

	_, err := s.repo.CreateNotification(ctx, ports.Notification{
		AccountID: accountID,
		Type:      notificationType,
		Content:   content,
		IsRead:    false,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return errs.Wrap(err, "store notification")
	}
	return nil
}
