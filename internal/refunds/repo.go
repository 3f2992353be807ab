package refunds

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository persists refund requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, refund *models.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Refund, error)
	Resolve(ctx context.Context, id uuid.UUID, to enums.RefundStatus, comment *string, resolvedAt time.Time) (bool, error)
	List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Refund, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the refund repository to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Omit("Order").Create(refund).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	err := r.withOrder(ctx).First(&refund, "refunds.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&refund).Error
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// Resolve records the seller decision while the refund is still pending. It
// reports false when the refund was already resolved.
func (r *repository) Resolve(ctx context.Context, id uuid.UUID, to enums.RefundStatus, comment *string, resolvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, enums.RefundStatusPending).
		Updates(map[string]any{
			"status":         to,
			"seller_comment": comment,
			"resolved_date":  resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns one cursor page of refunds, newest request first. userID
// restricts the page to refunds on that user's orders.
func (r *repository) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Refund, error) {
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	q := r.withOrder(ctx)
	if userID != nil {
		q = q.Joins("JOIN orders ON orders.id = refunds.order_id").
			Where("orders.user_id = ?", *userID)
	}
	if cursor != nil {
		q = q.Where("(refunds.created_at < ?) OR (refunds.created_at = ? AND refunds.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Refund
	err = q.Order("refunds.created_at DESC").
		Order("refunds.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) withOrder(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.User").
		Preload("Order.Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") })
}
