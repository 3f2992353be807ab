package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Refund is the one-per-order refund request attached to a delivered order.
type Refund struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_refunds_order_id"`
	Order         *Order             `gorm:"foreignKey:OrderID"`
	Reason        string             `gorm:"column:reason;type:text;not null"`
	Status        enums.RefundStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	SellerComment *string            `gorm:"column:seller_comment;type:text"`
	ResolvedDate  *time.Time         `gorm:"column:resolved_date"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Refund) BeforeCreate(_ *gorm.DB) error {
	assignID(&r.ID)
	return nil
}
