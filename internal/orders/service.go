package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// exportRowLimit bounds a single spreadsheet export.
const exportRowLimit = 10000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartStore interface {
	LoadCartTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error)
	ClearCartTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type inventory interface {
	GetProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
}

// Actor identifies the authenticated caller driving a mutation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}

// Service defines the order lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, orderIdentifier, status string) (*OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, orderIdentifier string) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderList, error)
	Search(ctx context.Context, orderIdentifier string) (*OrderDTO, error)
	Filter(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error)
	Export(ctx context.Context, filter Filter) ([]models.Order, error)
}

// ServiceParams carries the order service collaborators.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Carts     cartStore
	Inventory inventory
	Outbox    outboxPublisher
	Config    config.OrdersConfig
	Metrics   *metrics.Storefront
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	carts     cartStore
	inventory inventory
	outbox    outboxPublisher
	cfg       config.OrdersConfig
	metrics   *metrics.Storefront
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		carts:     params.Carts,
		inventory: params.Inventory,
		outbox:    params.Outbox,
		cfg:       params.Config,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Create converts the actor's cart into an order. Lines whose product no
// longer has enough stock are skipped; if every line is skipped nothing is
// persisted and an insufficient-stock error is returned.
func (s *service) Create(ctx context.Context, actor Actor, input CreateOrderInput) (*OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	input = input.normalized()
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		created *models.Order
		skipped []uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.carts.LoadCartTx(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}

		order := &models.Order{
			OrderIdentifier:       uuid.NewString(),
			UserID:                actor.UserID,
			Status:                enums.OrderStatusInProgress,
			PaymentMethod:         input.PaymentMethod,
			ShippingAddress:       input.ShippingAddress,
			ShippingZipCode:       input.ShippingZipCode,
			ShippingProvince:      input.ShippingProvince,
			ShippingPhoneNumber:   input.ShippingPhoneNumber,
			OrderDate:             now,
			EstimatedDeliveryDate: now.Add(s.cfg.DeliveryWindow()),
		}

		skipped = skipped[:0]
		for _, line := range cart.Items {
			p, err := s.inventory.GetProduct(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}
			if err := s.inventory.DecrementStock(ctx, tx, p.ID, line.Quantity); err != nil {
				if product.IsInsufficientStock(err) {
					skipped = append(skipped, p.ID)
					s.logSkippedLine(ctx, p, line.Quantity)
					continue
				}
				return err
			}
			unit := p.EffectivePriceCents()
			lineTotal := unit * int64(line.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				ProductID:            p.ID,
				ProductName:          p.Name,
				Quantity:             line.Quantity,
				UnitPriceCents:       unit,
				PriceAtPurchaseCents: lineTotal,
			})
			order.TotalOrderAmountCents += lineTotal
		}
		if len(order.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "no cart item has enough stock").
				WithDetails(map[string]any{"skipped_product_ids": skipped})
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := s.carts.ClearCartTx(ctx, tx, cart.ID); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:               order.ID,
				OrderIdentifier:       order.OrderIdentifier,
				UserID:                order.UserID,
				TotalOrderAmountCents: order.TotalOrderAmountCents,
				ItemCount:             len(order.Items),
				SkippedProductIDs:     skipped,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}
		created = order
		return nil
	})
	if err != nil {
		s.metrics.OrderRejected(string(pkgerrors.CodeOf(err)))
		return nil, asDomainError(err, "create order")
	}

	s.metrics.OrderCreated(len(skipped))
	if s.logg != nil {
		logCtx := s.logg.WithOrderIdentifier(ctx, created.OrderIdentifier)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"item_count":    len(created.Items),
			"skipped_lines": len(skipped),
			"total_cents":   created.TotalOrderAmountCents,
		})
		s.logg.Info(logCtx, "order created")
	}

	dto := NewOrderDTO(created)
	if len(skipped) > 0 {
		dto.SkippedProductIDs = append([]uuid.UUID(nil), skipped...)
	}
	return dto, nil
}

func (s *service) logSkippedLine(ctx context.Context, p *models.Product, qty int) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": p.ID.String(),
		"requested":  qty,
		"available":  p.Stock,
	})
	s.logg.Warn(logCtx, "order line skipped for insufficient stock")
}

// UpdateStatus applies an admin-driven lifecycle move.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderIdentifier, status string) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status: "+status)
	}

	var updated *models.Order
	var from enums.OrderStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderIdentifier)
		if err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransition(target, enums.ActorAdmin) {
			return invalidTransition(from, target)
		}
		ok, err := repo.CompareAndSetStatus(ctx, order.ID, from, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status changed concurrently").
				WithDetails(map[string]any{"expected": from})
		}
		order.Status = target

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:         order.ID,
				OrderIdentifier: order.OrderIdentifier,
				UserID:          order.UserID,
				From:            from,
				To:              target,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "update order status")
	}
	s.metrics.StatusTransition(string(from), string(target))
	return NewOrderDTO(updated), nil
}

// Cancel lets the owner withdraw an order before it ships. Stock is not restored.
func (s *service) Cancel(ctx context.Context, actor Actor, orderIdentifier string) (*OrderDTO, error) {
	var cancelled *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, orderIdentifier)
		if err != nil {
			return err
		}
		if order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		from = order.Status
		if !from.IsCancellable() {
			return pkgerrors.New(pkgerrors.CodeIllegalState, "order can only be cancelled before it ships").
				WithDetails(map[string]any{"status": from})
		}
		ok, err := repo.CompareAndSetStatus(ctx, order.ID, from, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeIllegalState, "order status changed concurrently")
		}
		order.Status = enums.OrderStatusCancelled

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderCancelledEvent{
				OrderID:         order.ID,
				OrderIdentifier: order.OrderIdentifier,
				UserID:          order.UserID,
				From:            from,
				CancelledAt:     s.now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order cancelled")
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "cancel order")
	}
	s.metrics.StatusTransition(string(from), string(enums.OrderStatusCancelled))
	return NewOrderDTO(cancelled), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return s.Filter(ctx, Filter{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*OrderList, error) {
	return s.Filter(ctx, Filter{}, params)
}

func (s *service) Filter(ctx context.Context, filter Filter, params pagination.Params) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderList(rows, params.Limit), nil
}

// Search looks an order up by its public identifier.
func (s *service) Search(ctx context.Context, orderIdentifier string) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderIdentifier)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

// Export returns every order matching filter for spreadsheet rendering.
func (s *service) Export(ctx context.Context, filter Filter) ([]models.Order, error) {
	rows, err := s.repo.ListForExport(ctx, filter, exportRowLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders for export")
	}
	return rows, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderIdentifier string) (*models.Order, error) {
	identifier := strings.TrimSpace(orderIdentifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order identifier required")
	}
	order, err := repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"order_identifier": identifier})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func invalidTransition(from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// asDomainError keeps typed errors intact and classifies anything else as a
// persistence failure.
func asDomainError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
