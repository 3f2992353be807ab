package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const refundOrderConstraint = "ux_refunds_order_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the refund request and review workflow.
type Service interface {
	Request(ctx context.Context, actor orders.Actor, orderIdentifier, reason string) (*RefundDTO, error)
	Approve(ctx context.Context, actor orders.Actor, refundID uuid.UUID, sellerComment string) (*RefundDTO, error)
	Reject(ctx context.Context, actor orders.Actor, refundID uuid.UUID, sellerComment string) (*RefundDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RefundList, error)
	ListAll(ctx context.Context, params pagination.Params) (*RefundList, error)
}

// ServiceParams carries the refund service collaborators.
type ServiceParams struct {
	Repo    Repository
	Orders  orders.Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Config  config.OrdersConfig
	Metrics *metrics.Storefront
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	orders  orders.Repository
	tx      txRunner
	outbox  outboxPublisher
	cfg     config.OrdersConfig
	metrics *metrics.Storefront
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the refund service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("refund repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		orders:  params.Orders,
		tx:      params.Tx,
		outbox:  params.Outbox,
		cfg:     params.Config,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

// Request opens a refund on a delivered order owned by actor. The refund
// window runs from the estimated delivery date.
func (s *service) Request(ctx context.Context, actor orders.Actor, orderIdentifier, reason string) (*RefundDTO, error) {
	reason, err := normalizeReason(reason)
	if err != nil {
		return nil, err
	}
	identifier := strings.TrimSpace(orderIdentifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order identifier required")
	}

	now := s.now().UTC()
	var created *models.Refund
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByIdentifier(ctx, identifier)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
					WithDetails(map[string]any{"order_identifier": identifier})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeIllegalState, "refunds can only be requested for delivered orders").
				WithDetails(map[string]any{"status": order.Status})
		}
		deadline := order.EstimatedDeliveryDate.Add(s.cfg.RefundWindow())
		if now.After(deadline) {
			return pkgerrors.New(pkgerrors.CodeExpired, "refund window has closed").
				WithDetails(map[string]any{"deadline": deadline.UTC()})
		}

		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByOrderID(ctx, order.ID); err == nil {
			return refundExists(order.OrderIdentifier)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing refund")
		}

		refund := &models.Refund{
			OrderID:   order.ID,
			Reason:    reason,
			Status:    enums.RefundStatusPending,
			CreatedAt: now,
		}
		if err := repo.Create(ctx, refund); err != nil {
			if dbpkg.IsUniqueViolation(err, refundOrderConstraint) {
				return refundExists(order.OrderIdentifier)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert refund")
		}
		refund.Order = order

		event := outbox.DomainEvent{
			EventType:     enums.EventRefundRequested,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         actorRef(actor),
			OccurredAt:    now,
			Data: payloads.RefundRequestedEvent{
				RefundID:        refund.ID,
				OrderID:         order.ID,
				OrderIdentifier: order.OrderIdentifier,
				UserID:          order.UserID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit refund requested")
		}
		created = refund
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "request refund")
	}

	s.metrics.Refund("requested")
	s.logRefund(ctx, created, "refund requested")
	return NewRefundDTO(created), nil
}

// Approve accepts a pending refund and moves its order to REFUNDED in the
// same transaction.
func (s *service) Approve(ctx context.Context, actor orders.Actor, refundID uuid.UUID, sellerComment string) (*RefundDTO, error) {
	return s.resolve(ctx, actor, refundID, sellerComment, enums.RefundStatusApproved)
}

// Reject declines a pending refund. The order keeps its status.
func (s *service) Reject(ctx context.Context, actor orders.Actor, refundID uuid.UUID, sellerComment string) (*RefundDTO, error) {
	return s.resolve(ctx, actor, refundID, sellerComment, enums.RefundStatusRejected)
}

func (s *service) resolve(ctx context.Context, actor orders.Actor, refundID uuid.UUID, sellerComment string, outcome enums.RefundStatus) (*RefundDTO, error) {
	comment, err := normalizeComment(sellerComment)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var resolved *models.Refund
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		refund, err := repo.FindByID(ctx, refundID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
		}
		if refund.Status != enums.RefundStatusPending {
			return alreadyResolved(refund.Status)
		}
		ok, err := repo.Resolve(ctx, refund.ID, outcome, comment, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve refund")
		}
		if !ok {
			return alreadyResolved("")
		}
		refund.Status = outcome
		refund.SellerComment = comment
		refund.ResolvedDate = &now

		order := refund.Order
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "refund has no order")
		}
		if outcome == enums.RefundStatusApproved {
			if !order.Status.CanTransition(enums.OrderStatusRefunded, enums.ActorSystem) {
				return pkgerrors.New(pkgerrors.CodeIllegalState, "order is no longer delivered").
					WithDetails(map[string]any{"status": order.Status})
			}
			ok, err := s.orders.WithTx(tx).CompareAndSetStatus(ctx, order.ID, order.Status, enums.OrderStatusRefunded)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeIllegalState, "order status changed concurrently")
			}
			order.Status = enums.OrderStatusRefunded
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventRefundResolved,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         actorRef(actor),
			OccurredAt:    now,
			Data: payloads.RefundResolvedEvent{
				RefundID:        refund.ID,
				OrderID:         order.ID,
				OrderIdentifier: order.OrderIdentifier,
				UserID:          order.UserID,
				Status:          outcome,
				ResolvedAt:      now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit refund resolved")
		}
		resolved = refund
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "resolve refund")
	}

	s.metrics.Refund(strings.ToLower(string(outcome)))
	if outcome == enums.RefundStatusApproved {
		s.metrics.StatusTransition(string(enums.OrderStatusDelivered), string(enums.OrderStatusRefunded))
	}
	s.logRefund(ctx, resolved, "refund resolved")
	return NewRefundDTO(resolved), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*RefundList, error) {
	return s.list(ctx, &userID, params)
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) (*RefundList, error) {
	return s.list(ctx, nil, params)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, params pagination.Params) (*RefundList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return newRefundList(rows, params.Limit), nil
}

func (s *service) logRefund(ctx context.Context, refund *models.Refund, msg string) {
	if s.logg == nil || refund == nil {
		return
	}
	fields := map[string]any{
		"refund_id": refund.ID.String(),
		"status":    string(refund.Status),
	}
	if refund.Order != nil {
		ctx = s.logg.WithOrderIdentifier(ctx, refund.Order.OrderIdentifier)
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func actorRef(actor orders.Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
}

func refundExists(orderIdentifier string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a refund already exists for this order").
		WithDetails(map[string]any{"order_identifier": orderIdentifier})
}

func alreadyResolved(status enums.RefundStatus) error {
	err := pkgerrors.New(pkgerrors.CodeIllegalState, "refund has already been resolved")
	if status != "" {
		err = err.WithDetails(map[string]any{"status": status})
	}
	return err
}

func asDomainError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
