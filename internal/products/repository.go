package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Repository wires together all product-related persistence helpers.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// FindByID loads the product without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProduct is FindByID with the lookup failure translated into the domain taxonomy.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, repo.LookupError(err, "product")
	}
	return product, nil
}

// DecrementStock removes qty units in a single conditional write so two
// checkouts can never drive stock below zero.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": id.String(), "requested": qty})
	}
	return nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// LockProduct loads the product for a read-modify-write. On postgres the row
// stays locked until the surrounding transaction ends.
func (r *Repository) LockProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.ForUpdate(r.DB(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, repo.LookupError(err, "product")
	}
	return &product, nil
}

// SaveProduct persists the given product columns. Stock is never rewritten
// unless it is part of columns.
func (r *Repository) SaveProduct(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
