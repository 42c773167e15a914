package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type cartTotaler interface {
	AuthoritativeTotal(ctx context.Context, userID uuid.UUID) (*cart.PricedCart, error)
}

type validateCouponRequest struct {
	Code           string `json:"code" validate:"required,max=64"`
	CartTotalCents *int   `json:"cart_total_cents,omitempty" validate:"omitempty,min=0"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type couponRequest struct {
	Code             string           `json:"code" validate:"required,max=64"`
	Type             enums.CouponType `json:"type" validate:"required"`
	Value            decimal.Decimal  `json:"value"`
	MinOrderCents    int              `json:"min_order_cents" validate:"min=0"`
	MaxDiscountCents *int             `json:"max_discount_cents,omitempty" validate:"omitempty,min=0"`
	ExpiresAt        time.Time        `json:"expires_at" validate:"required"`
	UsageLimit       *int             `json:"usage_limit,omitempty"`
	Description      string           `json:"description" validate:"max=500"`
	IsActive         *bool            `json:"is_active,omitempty"`
}

type couponUpdateRequest struct {
	Type             *enums.CouponType `json:"type,omitempty"`
	Value            *decimal.Decimal  `json:"value,omitempty"`
	MinOrderCents    *int              `json:"min_order_cents,omitempty" validate:"omitempty,min=0"`
	MaxDiscountCents *int              `json:"max_discount_cents,omitempty" validate:"omitempty,min=0"`
	ExpiresAt        *time.Time        `json:"expires_at,omitempty"`
	UsageLimit       *int              `json:"usage_limit,omitempty"`
	Description      *string           `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive         *bool             `json:"is_active,omitempty"`
}

// CouponValidate previews the discount without consuming a use. Without an explicit
// cart_total_cents the caller's cart is repriced server side.
func CouponValidate(svc coupons.Service, carts cartTotaler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || carts == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body validateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		total := 0
		if body.CartTotalCents != nil {
			total = *body.CartTotalCents
		} else {
			userID, err := middleware.RequireUserUUID(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			priced, err := carts.AuthoritativeTotal(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			total = priced.SubtotalCents
		}

		result, err := svc.Validate(ctx, body.Code, total)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CouponApply consumes one use of the coupon outside checkout.
func CouponApply(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body applyCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Apply(ctx, body.Code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		list, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"coupons": list})
	}
}

func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		var body couponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Create(ctx, coupons.CreateInput{
			Code:             body.Code,
			Type:             body.Type,
			Value:            body.Value,
			MinOrderCents:    body.MinOrderCents,
			MaxDiscountCents: body.MaxDiscountCents,
			ExpiresAt:        body.ExpiresAt,
			UsageLimit:       body.UsageLimit,
			Description:      body.Description,
			IsActive:         body.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body couponUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Update(ctx, id, coupons.UpdateInput{
			Type:             body.Type,
			Value:            body.Value,
			MinOrderCents:    body.MinOrderCents,
			MaxDiscountCents: body.MaxDiscountCents,
			ExpiresAt:        body.ExpiresAt,
			UsageLimit:       body.UsageLimit,
			Description:      body.Description,
			IsActive:         body.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// AdminToggleCoupon flips is_active.
func AdminToggleCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		coupon, err := svc.Toggle(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
