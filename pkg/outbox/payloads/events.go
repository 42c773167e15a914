package payloads

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderPlacedEvent is emitted in the checkout transaction.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalCents    int                 `json:"total_cents"`
	Currency      string              `json:"currency"`
	CouponCode    *string             `json:"coupon_code,omitempty"`
	ItemCount     int                 `json:"item_count"`
}

// OrderPaidEvent is emitted once an online payment is confirmed.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	UserID           uuid.UUID `json:"user_id"`
	TotalCents       int       `json:"total_cents"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	PaidAt           time.Time `json:"paid_at"`
}

// OrderPaymentFailedEvent is emitted after a failed payment was compensated and the order removed.
type OrderPaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
}

// PaymentOrphanedEvent reports money captured for an order that no longer exists.
// Consumers refund it; OrderID is the aggregate even though the row is gone.
type PaymentOrphanedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	SessionID        string    `json:"session_id"`
	PaymentReference string    `json:"payment_reference,omitempty"`
}

// OrderStatusChangedEvent records an administrator moving an order through the workflow.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	Restocked   bool              `json:"restocked"`
}

// OrderTrackingUpdatedEvent carries the courier details attached to an order.
type OrderTrackingUpdatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	Courier     string    `json:"courier"`
	TrackingID  string    `json:"tracking_id"`
	TrackingURL string    `json:"tracking_url,omitempty"`
}

// CouponRedeemedEvent is emitted when an order consumes a coupon use.
type CouponRedeemedEvent struct {
	CouponID      uuid.UUID `json:"coupon_id"`
	Code          string    `json:"code"`
	OrderID       uuid.UUID `json:"order_id"`
	DiscountCents int       `json:"discount_cents"`
	UsedCount     int       `json:"used_count"`
}
