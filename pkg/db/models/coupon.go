package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is a discount code. Value is a percentage for percentage coupons and
// an amount in major currency units for fixed coupons.
type Coupon struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code             string           `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	Type             enums.CouponType `gorm:"column:type;type:coupon_type;not null"`
	Value            decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderCents    int              `gorm:"column:min_order_cents;not null;default:0"`
	MaxDiscountCents *int             `gorm:"column:max_discount_cents"`
	ExpiresAt        time.Time        `gorm:"column:expires_at;not null"`
	UsageLimit       *int             `gorm:"column:usage_limit"`
	UsedCount        int              `gorm:"column:used_count;not null;default:0"`
	IsActive         bool             `gorm:"column:is_active;not null"`
	Description      string           `gorm:"column:description;not null;default:''"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
