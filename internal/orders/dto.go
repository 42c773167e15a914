package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// AdminFilters narrows the back office order list.
type AdminFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	PaymentMethod *enums.PaymentMethod
	UserID        *uuid.UUID
	Query         string
}

// OrderList is a page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          uuid.UUID             `json:"user_id"`
	Status          enums.OrderStatus     `json:"status"`
	StatusLabel     string                `json:"status_label"`
	NextStatuses    []enums.OrderStatus   `json:"next_statuses"`
	Items           []OrderItemDTO        `json:"items"`
	Pricing         PricingDTO            `json:"pricing"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Payment         PaymentDTO            `json:"payment"`
	ShippingAddress types.AddressSnapshot `json:"shipping_address"`
	Tracking        *types.Tracking       `json:"tracking,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type OrderItemDTO struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	SKU            string     `json:"sku,omitempty"`
	Title          string     `json:"title"`
	Image          string     `json:"image,omitempty"`
	Size           string     `json:"size,omitempty"`
	Color          string     `json:"color,omitempty"`
	PriceCents     int        `json:"price_cents"`
	Quantity       int        `json:"quantity"`
	LineTotalCents int        `json:"line_total_cents"`
}

// PricingDTO is the breakdown frozen at checkout. Total = Subtotal + Shipping - Discount.
type PricingDTO struct {
	SubtotalCents       int    `json:"subtotal_cents"`
	ShippingCents       int    `json:"shipping_cents"`
	DiscountCents       int    `json:"discount_cents"`
	CouponDiscountCents int    `json:"coupon_discount_cents"`
	TotalCents          int    `json:"total_cents"`
	Currency            string `json:"currency"`
}

type PaymentDTO struct {
	Method    enums.PaymentMethod `json:"method"`
	Status    enums.PaymentStatus `json:"status"`
	SessionID *string             `json:"session_id,omitempty"`
	Reference *string             `json:"reference,omitempty"`
	PaidAt    *time.Time          `json:"paid_at,omitempty"`
}

// NewOrderDTO maps a stored order for clients.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			SKU:            item.SKU,
			Title:          item.Title,
			Image:          item.Image,
			Size:           item.Size,
			Color:          item.Color,
			PriceCents:     item.PriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: item.PriceCents * item.Quantity,
		})
	}
	return OrderDTO{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		UserID:       o.UserID,
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		NextStatuses: NextStatuses(o.Status),
		Items:        items,
		Pricing: PricingDTO{
			SubtotalCents:       o.SubtotalCents,
			ShippingCents:       o.ShippingCents,
			DiscountCents:       o.DiscountCents,
			CouponDiscountCents: o.CouponDiscountCents,
			TotalCents:          o.TotalCents,
			Currency:            o.Currency,
		},
		CouponCode: o.CouponCode,
		Payment: PaymentDTO{
			Method:    o.PaymentMethod,
			Status:    o.PaymentStatus,
			SessionID: o.PaymentSessionID,
			Reference: o.PaymentReference,
			PaidAt:    o.PaidAt,
		},
		ShippingAddress: o.ShippingAddress,
		Tracking:        o.Tracking,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func newOrderDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewOrderDTO(&rows[i]))
	}
	return out
}
