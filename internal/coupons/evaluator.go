package coupons

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Reason names the first eligibility check a coupon failed.
type Reason string

const (
	ReasonNotFound          Reason = "not_found"
	ReasonInactive          Reason = "inactive"
	ReasonExpired           Reason = "expired"
	ReasonUsageLimitReached Reason = "usage_limit_reached"
	ReasonBelowMinimum      Reason = "below_minimum_order"
)

// Result is the outcome of evaluating a coupon against a cart total.
type Result struct {
	Valid         bool   `json:"valid"`
	DiscountCents int    `json:"discount_cents"`
	Reason        Reason `json:"reason,omitempty"`
	Message       string `json:"message"`
}

// Err converts an invalid result into a COUPON_INVALID error.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return pkgerrors.CouponInvalid(string(r.Reason), r.Message)
}

func invalid(reason Reason, message string) Result {
	return Result{Reason: reason, Message: message}
}

// Evaluate runs the eligibility checks in order and computes the discount.
// It never mutates the coupon.
func Evaluate(c *models.Coupon, totalCents int, now time.Time) Result {
	switch {
	case c == nil:
		return invalid(ReasonNotFound, "Invalid coupon code")
	case !c.IsActive:
		return invalid(ReasonInactive, "This coupon is no longer active")
	case now.After(c.ExpiresAt):
		return invalid(ReasonExpired, "This coupon has expired")
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return invalid(ReasonUsageLimitReached, "This coupon has reached its usage limit")
	case totalCents < c.MinOrderCents:
		return invalid(ReasonBelowMinimum, fmt.Sprintf("Minimum order value of %s required", formatCents(c.MinOrderCents)))
	}

	return Result{
		Valid:         true,
		DiscountCents: Discount(c, totalCents),
		Message:       "Coupon applied successfully",
	}
}

// Discount computes the amount off totalCents, never exceeding it.
func Discount(c *models.Coupon, totalCents int) int {
	if totalCents <= 0 {
		return 0
	}

	var discount int64
	switch c.Type {
	case enums.CouponTypePercentage:
		// half-up to the cent
		discount = decimal.NewFromInt(int64(totalCents)).
			Mul(c.Value).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if c.MaxDiscountCents != nil && discount > int64(*c.MaxDiscountCents) {
			discount = int64(*c.MaxDiscountCents)
		}
	case enums.CouponTypeFixed:
		discount = c.Value.Shift(2).Round(0).IntPart()
	}

	if discount < 0 {
		return 0
	}
	if discount > int64(totalCents) {
		return totalCents
	}
	return int(discount)
}

func formatCents(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
