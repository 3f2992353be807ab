package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxNameLength = 200

var hundred = decimal.NewFromInt(100)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name            string
	Description     *string
	UnitPriceCents  int64
	DiscountPercent decimal.Decimal
	Stock           int
	IsActive        bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	UnitPriceCents  *int64
	DiscountPercent *decimal.Decimal
	Stock           *int
	IsActive        *bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService constructs a product service instance.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateProductFields(name, input.UnitPriceCents, input.DiscountPercent, input.Stock); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:                 name,
		Description:          input.Description,
		UnitPriceCents:       input.UnitPriceCents,
		DiscountPercent:      input.DiscountPercent,
		DiscountedPriceCents: DiscountedPriceCents(input.UnitPriceCents, input.DiscountPercent),
		Stock:                input.Stock,
		IsActive:             input.IsActive,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		columns := map[string]any{}
		if input.Name != nil {
			product.Name = strings.TrimSpace(*input.Name)
			columns["name"] = product.Name
		}
		if input.Description != nil {
			product.Description = input.Description
			columns["description"] = *input.Description
		}
		if input.UnitPriceCents != nil {
			product.UnitPriceCents = *input.UnitPriceCents
		}
		if input.DiscountPercent != nil {
			product.DiscountPercent = *input.DiscountPercent
			columns["discount_percent"] = product.DiscountPercent
		}
		if input.Stock != nil {
			product.Stock = *input.Stock
			columns["stock"] = product.Stock
		}
		if input.IsActive != nil {
			product.IsActive = *input.IsActive
			columns["is_active"] = product.IsActive
		}
		if err := validateProductFields(product.Name, product.UnitPriceCents, product.DiscountPercent, product.Stock); err != nil {
			return err
		}
		if input.UnitPriceCents != nil || input.DiscountPercent != nil {
			columns["unit_price_cents"] = product.UnitPriceCents
			columns["discounted_price_cents"] = DiscountedPriceCents(product.UnitPriceCents, product.DiscountPercent)
		}

		if err := txRepo.SaveProduct(ctx, productID, columns); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
		updated, err = txRepo.GetProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewProductDTO(updated), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

// DiscountedPriceCents applies percent to the unit price, rounding half away
// from zero to whole cents.
func DiscountedPriceCents(unitPriceCents int64, percent decimal.Decimal) int64 {
	if percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(hundred) {
		return unitPriceCents
	}
	factor := hundred.Sub(percent).Div(hundred)
	return decimal.NewFromInt(unitPriceCents).Mul(factor).Round(0).IntPart()
}

func validateProductFields(name string, unitPriceCents int64, percent decimal.Decimal, stock int) error {
	switch {
	case name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case len(name) > maxNameLength:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	case unitPriceCents < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "unit_price_cents must be non-negative")
	case percent.IsNegative() || percent.GreaterThan(hundred):
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	case stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	return nil
}

// IsInsufficientStock reports whether err came from a failed conditional decrement.
func IsInsufficientStock(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock)
}
