package enums

import "fmt"

// OrderStatus is the lifecycle state of a customer order.
type OrderStatus string

const (
	OrderStatusInProgress     OrderStatus = "IN_PROGRESS"
	OrderStatusReceived       OrderStatus = "RECEIVED"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusRefunded       OrderStatus = "REFUNDED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInProgress,
	OrderStatusReceived,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusInProgress:     "Order In Progress",
	OrderStatusReceived:       "Order Received",
	OrderStatusShipped:        "Order Shipped",
	OrderStatusOutForDelivery: "Trying to deliver your order today",
	OrderStatusDelivered:      "Delivery Successful",
	OrderStatusCancelled:      "Order Cancelled",
	OrderStatusRefunded:       "Order Refund Successful",
}

// TransitionActor identifies who is allowed to drive an edge of the order state machine.
type TransitionActor string

const (
	ActorAdmin  TransitionActor = "admin"
	ActorUser   TransitionActor = "user"
	ActorSystem TransitionActor = "system"
)

type statusEdge struct {
	from OrderStatus
	to   OrderStatus
}

// orderTransitions lists every legal (from, to) pair and the actors that may take it.
// Pairs that are not listed are rejected.
var orderTransitions = map[statusEdge][]TransitionActor{
	{OrderStatusInProgress, OrderStatusReceived}:      {ActorAdmin},
	{OrderStatusReceived, OrderStatusShipped}:         {ActorAdmin},
	{OrderStatusShipped, OrderStatusOutForDelivery}:   {ActorAdmin},
	{OrderStatusOutForDelivery, OrderStatusDelivered}: {ActorAdmin},
	{OrderStatusInProgress, OrderStatusCancelled}:     {ActorAdmin, ActorUser},
	{OrderStatusReceived, OrderStatusCancelled}:       {ActorAdmin, ActorUser},
	{OrderStatusDelivered, OrderStatusRefunded}:       {ActorSystem},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label returns the customer-facing description of the status.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no outgoing transition exists for the status.
func (s OrderStatus) IsTerminal() bool {
	for edge := range orderTransitions {
		if edge.from == s {
			return false
		}
	}
	return true
}

// CanTransition reports whether actor may move an order from s to target.
func (s OrderStatus) CanTransition(target OrderStatus, actor TransitionActor) bool {
	actors, ok := orderTransitions[statusEdge{from: s, to: target}]
	if !ok {
		return false
	}
	for _, candidate := range actors {
		if candidate == actor {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a customer may still cancel an order in this status.
func (s OrderStatus) IsCancellable() bool {
	return s.CanTransition(OrderStatusCancelled, ActorUser)
}

// OrderStatuses returns every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
