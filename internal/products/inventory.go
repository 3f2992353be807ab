package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Inventory exposes catalog reads and stock writes that run inside a
// transaction owned by the caller (order creation).
type Inventory struct {
	repo *Repository
}

func NewInventory(repo *Repository) *Inventory {
	return &Inventory{repo: repo}
}

func (i *Inventory) GetProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	return i.repo.WithTx(tx).GetProduct(ctx, id)
}

func (i *Inventory) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return i.repo.WithTx(tx).DecrementStock(ctx, id, qty)
}
