package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem freezes a purchased line. PriceAtPurchaseCents is the line total
// (quantity times the unit price charged), not a per-unit price.
type OrderItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID              uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:ix_order_items_order_id"`
	ProductID            uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Product              *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	ProductName          string    `gorm:"column:product_name;not null"`
	Quantity             int       `gorm:"column:quantity;not null"`
	UnitPriceCents       int64     `gorm:"column:unit_price_cents;not null"`
	PriceAtPurchaseCents int64     `gorm:"column:price_at_purchase_cents;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	assignID(&i.ID)
	return nil
}
