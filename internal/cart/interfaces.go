package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	RecomputeTotal(ctx context.Context, cartID uuid.UUID) (int64, int64, error)
	FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
}
