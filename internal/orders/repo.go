package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds the order repository to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its lines in one statement batch.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("User", "Refund").Create(order).Error
}

func (r *repository) FindByIdentifier(ctx context.Context, orderIdentifier string) (*models.Order, error) {
	var order models.Order
	err := r.withDetail(ctx).
		Where("order_identifier = ?", strings.TrimSpace(orderIdentifier)).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CompareAndSetStatus moves the order to `to` only while it is still in
// `from`. It reports false when another writer got there first.
func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// List returns one cursor page, newest order first. The slice carries one
// extra row when a next page exists.
func (r *repository) List(ctx context.Context, filter Filter, params pagination.Params) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}
	q := applyFilter(r.withDetail(ctx), filter)
	if cursor != nil {
		q = q.Where("(order_date < ?) OR (order_date = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Order
	err = q.Order("order_date DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	return rows, err
}

// ListForExport returns every matching order (up to limit), newest first.
func (r *repository) ListForExport(ctx context.Context, filter Filter, limit int) ([]models.Order, error) {
	var rows []models.Order
	q := applyFilter(r.withDetail(ctx), filter).Order("order_date DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *repository) withDetail(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("User").
		Preload("Refund")
}

func applyFilter(q *gorm.DB, filter Filter) *gorm.DB {
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		q = q.Where("order_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_date <= ?", *filter.To)
	}
	return q
}
