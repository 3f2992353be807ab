package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	ID                  uuid.UUID     `json:"id"`
	UserID              uuid.UUID     `json:"user_id"`
	TotalCartPriceCents int64         `json:"total_cart_price_cents"`
	Items               []CartItemDTO `json:"items"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CartItemDTO describes one cart line.
type CartItemDTO struct {
	ID                   uuid.UUID `json:"id"`
	ProductID            uuid.UUID `json:"product_id"`
	ProductName          string    `json:"product_name,omitempty"`
	DiscountedPriceCents int64     `json:"discounted_price_cents"`
	Quantity             int       `json:"quantity"`
	SubtotalCents        int64     `json:"subtotal_cents"`
}

// AddItemInput is the validated add-to-cart payload.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

func newCartDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := CartItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			SubtotalCents: item.SubtotalCents,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.DiscountedPriceCents = item.Product.DiscountedPriceCents
		}
		items = append(items, line)
	}
	return &CartDTO{
		ID:                  cart.ID,
		UserID:              cart.UserID,
		TotalCartPriceCents: cart.TotalCartPriceCents,
		Items:               items,
		UpdatedAt:           cart.UpdatedAt,
	}
}
