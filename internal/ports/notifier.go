package ports

import "context"

// NotificationSink delivers milestone notifications to an account. Delivery
// is best effort: the pipeline logs sink failures and moves on, it never
// rolls back a completed analysis or a generated report over one.
type NotificationSink interface {
	Notify(ctx context.Context, accountID uint64, notificationType string, content string) error
}
