package model

type Notification struct {
	NotificationID uint64 `gorm:"column:notification_id;primaryKey;autoIncrement"`
	AccountID      uint64 `gorm:"column:account_id;not null;index"`
	Type           string `gorm:"column:type;type:text;not null"`
	Content        string `gorm:"column:content;type:text;not null"`
	IsRead         bool   `gorm:"column:is_read;not null;default:0"`
	CreatedAt      string `gorm:"column:created_at;type:text;not null;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
