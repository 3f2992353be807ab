package notifications

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	dbpkg "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	notificationConsumer   = "order-notifications"
	notificationConstraint = "ux_notifications_event_type"
	maxLoggedErrorLen      = 1024
)

// handledEvents lists the events that can produce an email.
var handledEvents = map[enums.OutboxEventType]bool{
	enums.EventOrderCreated:       true,
	enums.EventOrderStatusChanged: true,
	enums.EventRefundResolved:     true,
}

type eventDecoder interface {
	Decode(eventType enums.OutboxEventType, raw []byte) (outbox.PayloadEnvelope, interface{}, error)
}

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type refundLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error)
}

// ConsumerParams carries the notification consumer collaborators.
type ConsumerParams struct {
	Subscription *pubsub.Subscriber
	Decoder      eventDecoder
	Idempotency  *idempotency.Manager
	Orders       orderLoader
	Refunds      refundLoader
	Deliveries   Repository
	Notifier     Notifier
	Metrics      *metrics.Storefront
	Logger       *logger.Logger
}

// Consumer turns order and refund domain events into customer emails.
type Consumer struct {
	subscription *pubsub.Subscriber
	decoder      eventDecoder
	idempotency  *idempotency.Manager
	orders       orderLoader
	refunds      refundLoader
	deliveries   Repository
	notifier     Notifier
	metrics      *metrics.Storefront
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	switch {
	case params.Subscription == nil:
		return nil, fmt.Errorf("notification subscription required")
	case params.Decoder == nil:
		return nil, fmt.Errorf("event decoder required")
	case params.Idempotency == nil:
		return nil, fmt.Errorf("idempotency manager required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Refunds == nil:
		return nil, fmt.Errorf("refunds repository required")
	case params.Deliveries == nil:
		return nil, fmt.Errorf("notifications repository required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: params.Subscription,
		decoder:      params.Decoder,
		idempotency:  params.Idempotency,
		orders:       params.Orders,
		refunds:      params.Refunds,
		deliveries:   params.Deliveries,
		notifier:     params.Notifier,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !handledEvents[eventType] {
		c.logg.Info(logCtx, "skipping event without customer email")
		return processResult{ack: true}
	}

	envelope, payload, err := c.decoder.Decode(eventType, msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode event", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithEventID(logCtx, eventID.String())

	claim, first, err := c.idempotency.Claim(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !first {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.dispatch(ctx, logCtx, eventID, payload); err != nil {
		c.logg.Error(logCtx, "notification lookup failed", err)
		if err := claim.Release(ctx); err != nil {
			c.logg.WarnErr(logCtx, "failed to release processed marker, redelivery will be skipped", err)
		}
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

// dispatch loads what the email needs and sends it. Only lookup failures are
// returned; delivery failures are logged and swallowed.
func (c *Consumer) dispatch(ctx, logCtx context.Context, eventID uuid.UUID, payload interface{}) error {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		order, user, err := c.loadOrder(ctx, p.OrderID)
		if err != nil {
			return err
		}
		c.deliver(ctx, logCtx, eventID, enums.NotificationTypeOrderConfirmation, order, user, orderConfirmationSubject(order), func() error {
			return c.notifier.SendOrderConfirmation(ctx, order, user)
		})
	case *payloads.OrderStatusChangedEvent:
		if p.To == enums.OrderStatusCancelled {
			c.logg.Info(logCtx, "no email for cancelled orders")
			return nil
		}
		order, user, err := c.loadOrder(ctx, p.OrderID)
		if err != nil {
			return err
		}
		order.Status = p.To
		c.deliver(ctx, logCtx, eventID, enums.NotificationTypeStatusUpdate, order, user, statusUpdateSubject(order), func() error {
			return c.notifier.SendStatusUpdate(ctx, order, user)
		})
	case *payloads.RefundResolvedEvent:
		refund, err := c.refunds.FindByID(ctx, p.RefundID)
		if err != nil {
			return fmt.Errorf("load refund %s: %w", p.RefundID, err)
		}
		order := refund.Order
		if order == nil || order.User == nil {
			return fmt.Errorf("refund %s is missing its order or owner", refund.ID)
		}
		user := order.User
		c.deliver(ctx, logCtx, eventID, enums.NotificationTypeRefundOutcome, order, user, refundOutcomeSubject(refund, order), func() error {
			return c.notifier.SendRefundOutcome(ctx, refund, order, user)
		})
	default:
		c.logg.Info(logCtx, fmt.Sprintf("unexpected payload %T", payload))
	}
	return nil
}

func (c *Consumer) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, *models.User, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order.User == nil {
		return nil, nil, errors.New("order owner not found")
	}
	return order, order.User, nil
}

func (c *Consumer) deliver(ctx, logCtx context.Context, eventID uuid.UUID, kind enums.NotificationType, order *models.Order, user *models.User, subject string, send func() error) {
	logCtx = c.logg.WithOrderIdentifier(logCtx, order.OrderIdentifier)
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"notification_type": string(kind),
		"recipient":         user.Email,
	})

	orderID := order.ID
	record := &models.Notification{
		EventID:   eventID,
		Type:      kind,
		UserID:    user.ID,
		OrderID:   &orderID,
		Recipient: user.Email,
		Subject:   subject,
		Status:    enums.NotificationStatusSent,
	}
	if err := send(); err != nil {
		c.logg.WarnErr(logCtx, "notification delivery failed", err)
		c.metrics.NotificationFailed(string(kind))
		record.Status = enums.NotificationStatusFailed
		msg := truncateRunes(err.Error(), maxLoggedErrorLen)
		record.LastError = &msg
	} else {
		c.logg.Info(logCtx, "notification sent")
	}

	if err := c.deliveries.Create(ctx, record); err != nil {
		if dbpkg.IsUniqueViolation(err, notificationConstraint) {
			c.logg.Info(logCtx, "notification already logged")
			return
		}
		c.logg.WarnErr(logCtx, "notification log write failed", err)
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
