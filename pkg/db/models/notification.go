package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Notification logs one customer email attempt triggered by a domain event.
// At most one row exists per (event, type).
type Notification struct {
	ID        uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	EventID   uuid.UUID                `gorm:"column:event_id;type:uuid;not null;uniqueIndex:ux_notifications_event_type,priority:1"`
	Type      enums.NotificationType   `gorm:"column:type;type:text;not null;uniqueIndex:ux_notifications_event_type,priority:2"`
	UserID    uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index:ix_notifications_user_id"`
	OrderID   *uuid.UUID               `gorm:"column:order_id;type:uuid"`
	Recipient string                   `gorm:"column:recipient;type:text;not null"`
	Subject   string                   `gorm:"column:subject;type:text;not null"`
	Status    enums.NotificationStatus `gorm:"column:status;type:text;not null"`
	LastError *string                  `gorm:"column:last_error;type:text"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	assignID(&n.ID)
	return nil
}
