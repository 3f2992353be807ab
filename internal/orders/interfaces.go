package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByIdentifier(ctx context.Context, orderIdentifier string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Order, error)
	ListForExport(ctx context.Context, filter Filter, limit int) ([]models.Order, error)
}
