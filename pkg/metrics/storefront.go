package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records order lifecycle and notification outcomes.
// A nil *Storefront is valid and records nothing.
type Storefront struct {
	ordersCreated      prometheus.Counter
	orderLinesSkipped  prometheus.Counter
	ordersRejected     *prometheus.CounterVec
	statusTransitions  *prometheus.CounterVec
	refunds            *prometheus.CounterVec
	notificationErrors *prometheus.CounterVec
	outboxPublished    *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created from carts.",
	})
	orderLinesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_lines_skipped_total",
		Help: "Cart lines left out of an order because stock was insufficient.",
	})
	ordersRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order creation attempts that failed, by error code.",
	}, []string{"code"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Applied order status transitions.",
	}, []string{"from", "to"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refunds_total",
		Help: "Refund lifecycle events by outcome.",
	}, []string{"outcome"})
	notificationErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Notifications that could not be delivered.",
	}, []string{"kind"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events handed to the message broker, by result.",
	}, []string{"result"})
	reg.MustRegister(ordersCreated, orderLinesSkipped, ordersRejected, statusTransitions, refunds, notificationErrors, outboxPublished)
	return &Storefront{
		ordersCreated:      ordersCreated,
		orderLinesSkipped:  orderLinesSkipped,
		ordersRejected:     ordersRejected,
		statusTransitions:  statusTransitions,
		refunds:            refunds,
		notificationErrors: notificationErrors,
		outboxPublished:    outboxPublished,
	}
}

// OrderCreated counts a committed order and the lines skipped while building it.
func (s *Storefront) OrderCreated(skippedLines int) {
	if s == nil || s.ordersCreated == nil {
		return
	}
	s.ordersCreated.Inc()
	if skippedLines > 0 {
		s.orderLinesSkipped.Add(float64(skippedLines))
	}
}

// OrderRejected counts a failed order creation.
func (s *Storefront) OrderRejected(code string) {
	if s == nil || s.ordersRejected == nil {
		return
	}
	s.ordersRejected.WithLabelValues(normalizeLabel(code)).Inc()
}

// StatusTransition counts an applied order status change.
func (s *Storefront) StatusTransition(from, to string) {
	if s == nil || s.statusTransitions == nil {
		return
	}
	s.statusTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// Refund counts a refund lifecycle outcome (requested, approved, rejected).
func (s *Storefront) Refund(outcome string) {
	if s == nil || s.refunds == nil {
		return
	}
	s.refunds.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// NotificationFailed counts an undelivered notification.
func (s *Storefront) NotificationFailed(kind string) {
	if s == nil || s.notificationErrors == nil {
		return
	}
	s.notificationErrors.WithLabelValues(normalizeLabel(kind)).Inc()
}

// OutboxPublished counts a publish attempt result (published, failed, dead_lettered).
func (s *Storefront) OutboxPublished(result string) {
	if s == nil || s.outboxPublished == nil {
		return
	}
	s.outboxPublished.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
