package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Description          *string   `json:"description,omitempty"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	DiscountPercent      string    `json:"discount_percent"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	Stock                int       `json:"stock"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:                   product.ID,
		Name:                 product.Name,
		Description:          product.Description,
		UnitPriceCents:       product.UnitPriceCents,
		DiscountPercent:      product.DiscountPercent.StringFixed(2),
		DiscountedPriceCents: product.DiscountedPriceCents,
		Stock:                product.Stock,
		IsActive:             product.IsActive,
		CreatedAt:            product.CreatedAt,
		UpdatedAt:            product.UpdatedAt,
	}
}
