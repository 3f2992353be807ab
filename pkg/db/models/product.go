package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. DiscountedPriceCents is derived when the product is saved
// through the catalog service and is not refreshed by later raw price updates.
type Product struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string          `gorm:"column:name;not null"`
	Description          *string         `gorm:"column:description"`
	UnitPriceCents       int64           `gorm:"column:unit_price_cents;not null"`
	DiscountPercent      decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	DiscountedPriceCents int64           `gorm:"column:discounted_price_cents;not null;default:0"`
	Stock                int             `gorm:"column:stock;not null;default:0;check:chk_products_stock_non_negative,stock >= 0"`
	IsActive             bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// EffectivePriceCents is the per-unit price charged at checkout.
func (p Product) EffectivePriceCents() int64 {
	if p.DiscountedPriceCents != 0 {
		return p.DiscountedPriceCents
	}
	return p.UnitPriceCents
}
