package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// PlaceOrderInput is the buyer's checkout request. The cart itself is read server side.
type PlaceOrderInput struct {
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    string
	ReturnURL     string
	CustomerEmail string
}

// PlaceOrderResult carries the created order and, for online payments, the hosted payment page.
type PlaceOrderResult struct {
	Order      orders.OrderDTO `json:"order"`
	PaymentURL string          `json:"payment_url,omitempty"`
}

// VerifyPaymentInput is sent by the client after returning from the payment page.
type VerifyPaymentInput struct {
	OrderID   uuid.UUID
	Success   bool
	SessionID string
}

// VerifyPaymentResult reports the payment outcome. Order is nil when the order was
// removed because the payment failed.
type VerifyPaymentResult struct {
	Paid  bool             `json:"paid"`
	Order *orders.OrderDTO `json:"order,omitempty"`
}
