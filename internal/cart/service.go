package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	cartUserConstraint    = "ux_carts_user_id"
	cartProductConstraint = "ux_cart_items_cart_product"
	maxMutationAttempts   = 2
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations for the owning user.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	GetCartForUser(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	LoadCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error)
	ClearCartTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// AddItem sets the quantity of productID in the user's cart, creating the cart
// and the line on first use. An existing line has its quantity replaced.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	subtotal := int64(input.Quantity) * product.DiscountedPriceCents

	var result *models.Cart
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			cart, err := s.findOrCreateCart(ctx, repo, userID)
			if err != nil {
				return err
			}

			item, err := repo.FindItemByProduct(ctx, cart.ID, product.ID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item = &models.CartItem{CartID: cart.ID, ProductID: product.ID}
			case err != nil:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			item.Quantity = input.Quantity
			item.SubtotalCents = subtotal
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
			if _, _, err := repo.RecomputeTotal(ctx, cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
			}

			result, err = repo.FindByID(ctx, cart.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
			}
			return nil
		})
		if err == nil || !isCartRace(err) || attempt == maxMutationAttempts {
			break
		}
	}
	if err != nil {
		if isCartRace(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently")
		}
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil, err
	}
	return newCartDTO(result), nil
}

func (s *service) findOrCreateCart(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return repo.Create(ctx, &models.Cart{UserID: userID})
}

// RemoveItem deletes one line owned by userID. It returns nil when the
// removal emptied the cart and the cart row was deleted.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	var result *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		cart, err := repo.FindByID(ctx, item.CartID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if cart.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
		}

		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		_, lines, err := repo.RecomputeTotal(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute cart total")
		}
		if lines == 0 {
			if err := repo.Delete(ctx, cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete empty cart")
			}
			return nil
		}
		result, err = repo.FindByID(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newCartDTO(result), nil
}

// ClearCart drops every line and the cart row itself.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found for this user")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart items")
		}
		if err := repo.Delete(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		return nil
	})
}

func (s *service) GetCartForUser(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found for this user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return newCartDTO(cart), nil
}

// LoadCartTx reads the user's cart with lines and products through the caller's transaction.
func (s *service) LoadCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	cart, err := s.repo.WithTx(tx).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found for this user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// ClearCartTx empties the cart inside the caller's transaction and zeroes its
// total. The cart row itself is kept.
func (s *service) ClearCartTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	repo := s.repo.WithTx(tx)
	if err := repo.DeleteItems(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
	}
	if _, _, err := repo.RecomputeTotal(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "zero cart total")
	}
	return nil
}

func isCartRace(err error) bool {
	return dbpkg.IsUniqueViolation(err, cartUserConstraint) || dbpkg.IsUniqueViolation(err, cartProductConstraint)
}
