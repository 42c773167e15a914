package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the immutable record of a checkout. Only Status, Tracking and the
// payment fields change after creation.
type Order struct {
	ID                  uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber         string                `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key"`
	UserID              uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status              enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'order_placed'"`
	SubtotalCents       int                   `gorm:"column:subtotal_cents;not null"`
	ShippingCents       int                   `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents       int                   `gorm:"column:discount_cents;not null;default:0"`
	CouponCode          *string               `gorm:"column:coupon_code"`
	CouponDiscountCents int                   `gorm:"column:coupon_discount_cents;not null;default:0"`
	TotalCents          int                   `gorm:"column:total_cents;not null"`
	Currency            string                `gorm:"column:currency;not null;default:'INR'"`
	PaymentMethod       enums.PaymentMethod   `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentStatus       enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentSessionID    *string               `gorm:"column:payment_session_id"`
	PaymentReference    *string               `gorm:"column:payment_reference"`
	PaidAt              *time.Time            `gorm:"column:paid_at"`
	ShippingAddress     types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	Tracking            *types.Tracking       `gorm:"column:tracking;type:jsonb;serializer:json"`
	Items               []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem is a snapshot of a purchased cart line.
type OrderItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID  *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	SKU        string     `gorm:"column:sku;not null;default:''"`
	Title      string     `gorm:"column:title;not null"`
	Image      string     `gorm:"column:image;not null;default:''"`
	Size       string     `gorm:"column:size;not null;default:''"`
	Color      string     `gorm:"column:color;not null;default:''"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
