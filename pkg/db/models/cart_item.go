package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one product line inside a Cart.
type CartItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product,priority:1"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_cart_product,priority:2"`
	Product       *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity      int       `gorm:"column:quantity;not null"`
	SubtotalCents int64     `gorm:"column:subtotal_cents;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
