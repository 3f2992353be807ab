package orders

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// DateLayout is the ISO calendar date accepted by the filter and export endpoints.
const DateLayout = "2006-01-02"

// Filter narrows order listings. Nil fields are ignored.
type Filter struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
	From   *time.Time
	To     *time.Time
}

// NewFilter parses the raw admin filter inputs. Empty strings leave the
// corresponding bound open. The start date begins at 00:00:00 and the end
// date runs through 23:59:59 of that day, both in UTC.
func NewFilter(status, startDate, endDate string) (Filter, error) {
	var filter Filter
	if s := strings.TrimSpace(status); s != "" {
		parsed, err := enums.ParseOrderStatus(strings.ToUpper(s))
		if err != nil {
			return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status: "+s)
		}
		filter.Status = &parsed
	}
	if s := strings.TrimSpace(startDate); s != "" {
		start, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "startDate must be formatted yyyy-mm-dd")
		}
		filter.From = &start
	}
	if s := strings.TrimSpace(endDate); s != "" {
		day, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "endDate must be formatted yyyy-mm-dd")
		}
		end := day.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "startDate must not be after endDate")
	}
	return filter, nil
}

// CreateOrderInput is the checkout payload. The cart supplies the lines.
type CreateOrderInput struct {
	PaymentMethod       string
	ShippingAddress     string
	ShippingZipCode     string
	ShippingProvince    string
	ShippingPhoneNumber string
}

func (in CreateOrderInput) normalized() CreateOrderInput {
	return CreateOrderInput{
		PaymentMethod:       strings.TrimSpace(in.PaymentMethod),
		ShippingAddress:     strings.TrimSpace(in.ShippingAddress),
		ShippingZipCode:     strings.TrimSpace(in.ShippingZipCode),
		ShippingProvince:    strings.TrimSpace(in.ShippingProvince),
		ShippingPhoneNumber: strings.TrimSpace(in.ShippingPhoneNumber),
	}
}

func (in CreateOrderInput) validate() error {
	missing := []string{}
	for field, value := range map[string]string{
		"payment_method":        in.PaymentMethod,
		"shipping_address":      in.ShippingAddress,
		"shipping_zip_code":     in.ShippingZipCode,
		"shipping_province":     in.ShippingProvince,
		"shipping_phone_number": in.ShippingPhoneNumber,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID                    uuid.UUID         `json:"id"`
	OrderIdentifier       string            `json:"order_identifier"`
	UserID                uuid.UUID         `json:"user_id"`
	UserEmail             string            `json:"user_email,omitempty"`
	Status                enums.OrderStatus `json:"status"`
	StatusLabel           string            `json:"status_label"`
	TotalOrderAmountCents int64             `json:"total_order_amount_cents"`
	PaymentMethod         string            `json:"payment_method"`
	ShippingAddress       string            `json:"shipping_address"`
	ShippingZipCode       string            `json:"shipping_zip_code"`
	ShippingProvince      string            `json:"shipping_province"`
	ShippingPhoneNumber   string            `json:"shipping_phone_number"`
	OrderDate             time.Time         `json:"order_date"`
	EstimatedDeliveryDate time.Time         `json:"estimated_delivery_date"`
	Items                 []OrderItemDTO    `json:"items"`
	SkippedProductIDs     []uuid.UUID       `json:"skipped_product_ids,omitempty"`
}

// OrderItemDTO is one frozen order line. PriceAtPurchaseCents is the line total.
type OrderItemDTO struct {
	ID                   uuid.UUID `json:"id"`
	ProductID            uuid.UUID `json:"product_id"`
	ProductName          string    `json:"product_name"`
	Quantity             int       `json:"quantity"`
	UnitPriceCents       int64     `json:"unit_price_cents"`
	PriceAtPurchaseCents int64     `json:"price_at_purchase_cents"`
}

// OrderList is one cursor page of orders.
type OrderList = pagination.Page[OrderDTO]

// StatusDTO describes one order status for status pickers.
type StatusDTO struct {
	ID    int               `json:"id"`
	Name  enums.OrderStatus `json:"name"`
	Label string            `json:"label"`
}

// NewOrderDTO maps a persisted order into its transport shape.
func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			ProductName:          item.ProductName,
			Quantity:             item.Quantity,
			UnitPriceCents:       item.UnitPriceCents,
			PriceAtPurchaseCents: item.PriceAtPurchaseCents,
		})
	}
	dto := &OrderDTO{
		ID:                    order.ID,
		OrderIdentifier:       order.OrderIdentifier,
		UserID:                order.UserID,
		Status:                order.Status,
		StatusLabel:           order.Status.Label(),
		TotalOrderAmountCents: order.TotalOrderAmountCents,
		PaymentMethod:         order.PaymentMethod,
		ShippingAddress:       order.ShippingAddress,
		ShippingZipCode:       order.ShippingZipCode,
		ShippingProvince:      order.ShippingProvince,
		ShippingPhoneNumber:   order.ShippingPhoneNumber,
		OrderDate:             order.OrderDate,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		Items:                 items,
	}
	if order.User != nil {
		dto.UserEmail = order.User.Email
	}
	return dto
}

func newOrderList(rows []models.Order, limit int) *OrderList {
	page := pagination.BuildPage(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.OrderDate, ID: o.ID}
	})
	items := make([]OrderDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *NewOrderDTO(&page.Items[i]))
	}
	return &OrderList{Items: items, Cursor: page.Cursor}
}

// Statuses lists every order status in lifecycle order.
func Statuses() []StatusDTO {
	statuses := enums.OrderStatuses()
	out := make([]StatusDTO, 0, len(statuses))
	for i, status := range statuses {
		out = append(out, StatusDTO{ID: i + 1, Name: status, Label: status.Label()})
	}
	return out
}
