package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUserID loads the user's cart with lines and their products.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID loads a cart with its lines.
func (r *Repository) FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *Repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}

func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItem inserts the line when it has no id yet and updates it otherwise.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	db := r.db.WithContext(ctx).Omit("Product")
	if item.ID == uuid.Nil {
		return db.Create(item).Error
	}
	return db.Save(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// RecomputeTotal re-sums the line subtotals into the cart row and returns the
// new total with the remaining line count.
func (r *Repository) RecomputeTotal(ctx context.Context, cartID uuid.UUID) (int64, int64, error) {
	var agg struct {
		Total     int64
		LineCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("COALESCE(SUM(subtotal_cents), 0) AS total, COUNT(*) AS line_count").
		Where("cart_id = ?", cartID).
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("total_cart_price_cents", agg.Total).Error
	if err != nil {
		return 0, 0, err
	}
	return agg.Total, agg.LineCount, nil
}
