package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once an order and its lines are persisted.
type OrderCreatedEvent struct {
	OrderID               uuid.UUID   `json:"orderId"`
	OrderIdentifier       string      `json:"orderIdentifier"`
	UserID                uuid.UUID   `json:"userId"`
	TotalOrderAmountCents int64       `json:"totalOrderAmountCents"`
	ItemCount             int         `json:"itemCount"`
	SkippedProductIDs     []uuid.UUID `json:"skippedProductIds,omitempty"`
}

// OrderStatusChangedEvent describes a lifecycle move applied by an admin.
type OrderStatusChangedEvent struct {
	OrderID         uuid.UUID         `json:"orderId"`
	OrderIdentifier string            `json:"orderIdentifier"`
	UserID          uuid.UUID         `json:"userId"`
	From            enums.OrderStatus `json:"from"`
	To              enums.OrderStatus `json:"to"`
}

type OrderCancelledEvent struct {
	OrderID         uuid.UUID         `json:"orderId"`
	OrderIdentifier string            `json:"orderIdentifier"`
	UserID          uuid.UUID         `json:"userId"`
	From            enums.OrderStatus `json:"from"`
	CancelledAt     time.Time         `json:"cancelledAt"`
}

type RefundRequestedEvent struct {
	RefundID        uuid.UUID `json:"refundId"`
	OrderID         uuid.UUID `json:"orderId"`
	OrderIdentifier string    `json:"orderIdentifier"`
	UserID          uuid.UUID `json:"userId"`
}

// RefundResolvedEvent carries the seller decision on a refund request.
type RefundResolvedEvent struct {
	RefundID        uuid.UUID          `json:"refundId"`
	OrderID         uuid.UUID          `json:"orderId"`
	OrderIdentifier string             `json:"orderIdentifier"`
	UserID          uuid.UUID          `json:"userId"`
	Status          enums.RefundStatus `json:"status"`
	ResolvedAt      time.Time          `json:"resolvedAt"`
}
