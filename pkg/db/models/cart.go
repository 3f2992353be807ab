package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the single pre-order basket a user owns.
type Cart struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID              uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_carts_user_id"`
	TotalCartPriceCents int64      `gorm:"column:total_cart_price_cents;not null;default:0"`
	Items               []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(_ *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
