package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const displayDateLayout = "Jan 2, 2006"

// Notifier sends the customer-facing emails for order and refund events.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order, user *models.User) error
	SendStatusUpdate(ctx context.Context, order *models.Order, user *models.User) error
	SendRefundOutcome(ctx context.Context, refund *models.Refund, order *models.Order, user *models.User) error
}

// EmailNotifier renders HTML templates and hands them to a Mailer.
type EmailNotifier struct {
	mailer    Mailer
	cfg       config.MailConfig
	templates *template.Template
}

// NewEmailNotifier parses the embedded templates.
func NewEmailNotifier(mailer Mailer, cfg config.MailConfig) (*EmailNotifier, error) {
	if mailer == nil {
		return nil, errors.New("mailer required")
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &EmailNotifier{mailer: mailer, cfg: cfg, templates: tmpl}, nil
}

func (n *EmailNotifier) SendOrderConfirmation(ctx context.Context, order *models.Order, user *models.User) error {
	if order == nil || user == nil {
		return errors.New("order and user required")
	}
	return n.send(ctx, user, orderConfirmationSubject(order), "order_confirmation", n.orderView(order, user))
}

func (n *EmailNotifier) SendStatusUpdate(ctx context.Context, order *models.Order, user *models.User) error {
	if order == nil || user == nil {
		return errors.New("order and user required")
	}
	view := n.orderView(order, user)
	view.ShowDeliveryEstimate = !order.Status.IsTerminal()
	return n.send(ctx, user, statusUpdateSubject(order), "status_update", view)
}

func (n *EmailNotifier) SendRefundOutcome(ctx context.Context, refund *models.Refund, order *models.Order, user *models.User) error {
	if refund == nil || order == nil || user == nil {
		return errors.New("refund, order and user required")
	}
	view := refundView{
		orderView:    n.orderView(order, user),
		Approved:     refund.Status == enums.RefundStatusApproved,
		RefundStatus: string(refund.Status),
		Reason:       refund.Reason,
		RequestedOn:  formatDate(refund.CreatedAt),
	}
	if refund.SellerComment != nil {
		view.SellerComment = *refund.SellerComment
	}
	if refund.ResolvedDate != nil {
		view.ResolvedOn = formatDate(*refund.ResolvedDate)
	}
	return n.send(ctx, user, refundOutcomeSubject(refund, order), "refund_outcome", view)
}

func (n *EmailNotifier) send(ctx context.Context, user *models.User, subject, name string, data any) error {
	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return n.mailer.Send(ctx, Message{
		To:      user.Email,
		ToName:  user.FullName(),
		Subject: subject,
		HTML:    body.String(),
	})
}

type orderView struct {
	CustomerName         string
	OrderIdentifier      string
	StatusLabel          string
	OrderDate            string
	EstimatedDelivery    string
	ShowDeliveryEstimate bool
	Total                string
	PaymentMethod        string
	ShippingAddress      string
	ShippingZipCode      string
	ShippingProvince     string
	ShippingPhoneNumber  string
	SupportEmail         string
	Items                []itemView
}

type itemView struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type refundView struct {
	orderView
	Approved      bool
	RefundStatus  string
	Reason        string
	SellerComment string
	RequestedOn   string
	ResolvedOn    string
}

func (n *EmailNotifier) orderView(order *models.Order, user *models.User) orderView {
	view := orderView{
		CustomerName:        user.FullName(),
		OrderIdentifier:     order.OrderIdentifier,
		StatusLabel:         order.Status.Label(),
		OrderDate:           formatDate(order.OrderDate),
		EstimatedDelivery:   formatDate(order.EstimatedDeliveryDate),
		Total:               types.FormatCents(order.TotalOrderAmountCents),
		PaymentMethod:       order.PaymentMethod,
		ShippingAddress:     order.ShippingAddress,
		ShippingZipCode:     order.ShippingZipCode,
		ShippingProvince:    order.ShippingProvince,
		ShippingPhoneNumber: order.ShippingPhoneNumber,
		SupportEmail:        n.cfg.SupportEmail,
	}
	if view.CustomerName == "" {
		view.CustomerName = user.Email
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, itemView{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: types.FormatCents(item.UnitPriceCents),
			LineTotal: types.FormatCents(item.PriceAtPurchaseCents),
		})
	}
	return view
}

func orderConfirmationSubject(order *models.Order) string {
	return "Order confirmation " + order.OrderIdentifier
}

func statusUpdateSubject(order *models.Order) string {
	return fmt.Sprintf("Order %s: %s", order.OrderIdentifier, order.Status.Label())
}

func refundOutcomeSubject(refund *models.Refund, order *models.Order) string {
	if refund.Status == enums.RefundStatusApproved {
		return "Refund approved for order " + order.OrderIdentifier
	}
	return "Refund declined for order " + order.OrderIdentifier
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(displayDateLayout)
}
