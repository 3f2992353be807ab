package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the immutable record of a checkout. Only Status changes after creation.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderIdentifier       string            `gorm:"column:order_identifier;type:text;not null;uniqueIndex:ux_orders_order_identifier"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:ix_orders_user_id"`
	User                  *User             `gorm:"foreignKey:UserID"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null;index:ix_orders_status"`
	TotalOrderAmountCents int64             `gorm:"column:total_order_amount_cents;not null"`
	PaymentMethod         string            `gorm:"column:payment_method;not null"`
	ShippingAddress       string            `gorm:"column:shipping_address;not null"`
	ShippingZipCode       string            `gorm:"column:shipping_zip_code;not null"`
	ShippingProvince      string            `gorm:"column:shipping_province;not null"`
	ShippingPhoneNumber   string            `gorm:"column:shipping_phone_number;not null"`
	OrderDate             time.Time         `gorm:"column:order_date;not null;index:ix_orders_order_date"`
	EstimatedDeliveryDate time.Time         `gorm:"column:estimated_delivery_date;not null"`
	Items                 []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Refund                *Refund           `gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// TotalQuantity sums the units across all lines.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
