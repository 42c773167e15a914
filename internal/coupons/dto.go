package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Type             enums.CouponType `json:"type"`
	Value            decimal.Decimal  `json:"value"`
	MinOrderCents    int              `json:"min_order_cents"`
	MaxDiscountCents *int             `json:"max_discount_cents,omitempty"`
	ExpiresAt        time.Time        `json:"expires_at"`
	UsageLimit       *int             `json:"usage_limit,omitempty"`
	UsedCount        int              `json:"used_count"`
	IsActive         bool             `json:"is_active"`
	Description      string           `json:"description"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func NewCouponDTO(c *models.Coupon) *CouponDTO {
	return &CouponDTO{
		ID:               c.ID,
		Code:             c.Code,
		Type:             c.Type,
		Value:            c.Value,
		MinOrderCents:    c.MinOrderCents,
		MaxDiscountCents: c.MaxDiscountCents,
		ExpiresAt:        c.ExpiresAt,
		UsageLimit:       c.UsageLimit,
		UsedCount:        c.UsedCount,
		IsActive:         c.IsActive,
		Description:      c.Description,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ValidationDTO is returned by the public validate endpoint.
type ValidationDTO struct {
	Code          string           `json:"code"`
	Type          enums.CouponType `json:"type"`
	Value         decimal.Decimal  `json:"value"`
	DiscountCents int              `json:"discount_cents"`
	Message       string           `json:"message"`
}

// Redemption is a coupon use consumed by an order.
type Redemption struct {
	CouponID      uuid.UUID
	Code          string
	DiscountCents int
	UsedCount     int
}
