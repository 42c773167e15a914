package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service validates, redeems and administers coupons.
type Service interface {
	Validate(ctx context.Context, code string, totalCents int) (*ValidationDTO, error)
	Apply(ctx context.Context, code string) (*CouponDTO, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, totalCents int) (*Redemption, error)
	Release(ctx context.Context, tx *gorm.DB, code string) error

	Create(ctx context.Context, input CreateInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Toggle(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
}

// CreateInput holds the validated payload to create a coupon.
type CreateInput struct {
	Code             string
	Type             enums.CouponType
	Value            decimal.Decimal
	MinOrderCents    int
	MaxDiscountCents *int
	ExpiresAt        time.Time
	UsageLimit       *int
	Description      string
	IsActive         *bool
}

// UpdateInput holds optional coupon changes.
type UpdateInput struct {
	Type             *enums.CouponType
	Value            *decimal.Decimal
	MinOrderCents    *int
	MaxDiscountCents *int
	ExpiresAt        *time.Time
	UsageLimit       *int
	Description      *string
	IsActive         *bool
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs the coupon service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate evaluates the coupon without consuming a use.
func (s *service) Validate(ctx context.Context, code string, totalCents int) (*ValidationDTO, error) {
	if totalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must not be negative")
	}
	coupon, err := s.lookup(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}

	result := Evaluate(coupon, totalCents, s.now())
	if err := result.Err(); err != nil {
		return nil, err
	}
	return &ValidationDTO{
		Code:          coupon.Code,
		Type:          coupon.Type,
		Value:         coupon.Value,
		DiscountCents: result.DiscountCents,
		Message:       result.Message,
	}, nil
}

// Apply consumes exactly one use of the coupon.
func (s *service) Apply(ctx context.Context, code string) (*CouponDTO, error) {
	coupon, err := s.lookup(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, Evaluate(nil, 0, s.now()).Err()
	}

	ok, err := s.repo.Consume(ctx, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: consume coupon")
	}
	if !ok {
		return nil, pkgerrors.CouponInvalid(string(ReasonUsageLimitReached), "This coupon has reached its usage limit")
	}

	updated, err := s.repo.FindByID(ctx, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload coupon")
	}
	return NewCouponDTO(updated), nil
}

// Redeem evaluates the coupon and consumes one use inside tx.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string, totalCents int) (*Redemption, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	repo := s.repo.WithTx(tx)

	coupon, err := s.lookup(ctx, repo, code)
	if err != nil {
		return nil, err
	}
	result := Evaluate(coupon, totalCents, s.now())
	if err := result.Err(); err != nil {
		return nil, err
	}

	ok, err := repo.Consume(ctx, coupon.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: consume coupon")
	}
	if !ok {
		return nil, pkgerrors.CouponInvalid(string(ReasonUsageLimitReached), "This coupon has reached its usage limit")
	}

	return &Redemption{
		CouponID:      coupon.ID,
		Code:          coupon.Code,
		DiscountCents: result.DiscountCents,
		UsedCount:     coupon.UsedCount + 1,
	}, nil
}

// Release returns a use consumed by an order that never completed.
func (s *service) Release(ctx context.Context, tx *gorm.DB, code string) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := s.repo.WithTx(tx).Release(ctx, NormalizeCode(code)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: release coupon")
	}
	return nil
}

// Create stores a new coupon with an upper-cased code.
func (s *service) Create(ctx context.Context, input CreateInput) (*CouponDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	coupon := &models.Coupon{
		Code:             code,
		Type:             input.Type,
		Value:            input.Value,
		MinOrderCents:    input.MinOrderCents,
		MaxDiscountCents: input.MaxDiscountCents,
		ExpiresAt:        input.ExpiresAt,
		UsageLimit:       input.UsageLimit,
		Description:      strings.TrimSpace(input.Description),
		IsActive:         input.IsActive == nil || *input.IsActive,
	}
	normalize(coupon)
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert coupon")
	}
	return NewCouponDTO(coupon), nil
}

// List returns every coupon, newest first.
func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewCouponDTO(&rows[i]))
	}
	return out, nil
}

// Update applies the provided fields. The code itself is immutable.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CouponDTO, error) {
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Type != nil {
		coupon.Type = *input.Type
	}
	if input.Value != nil {
		coupon.Value = *input.Value
	}
	if input.MinOrderCents != nil {
		coupon.MinOrderCents = *input.MinOrderCents
	}
	if input.MaxDiscountCents != nil {
		coupon.MaxDiscountCents = input.MaxDiscountCents
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = *input.ExpiresAt
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	if input.Description != nil {
		coupon.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	normalize(coupon)
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update coupon")
	}
	return NewCouponDTO(coupon), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete coupon")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	return nil
}

// Toggle flips the active flag.
func (s *service) Toggle(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	found, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: toggle coupon")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	coupon, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewCouponDTO(coupon), nil
}

// lookup returns nil without error when the code does not exist.
func (s *service) lookup(ctx context.Context, repo *Repository, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := repo.FindByCode(ctx, normalized)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
	}
	return coupon, nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find coupon")
	}
	return coupon, nil
}

// normalize treats non-positive limits as unlimited and drops caps on fixed coupons.
func normalize(c *models.Coupon) {
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		c.UsageLimit = nil
	}
	if c.MaxDiscountCents != nil && (*c.MaxDiscountCents <= 0 || c.Type == enums.CouponTypeFixed) {
		c.MaxDiscountCents = nil
	}
}

func validateCoupon(c *models.Coupon) error {
	switch {
	case !c.Type.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "type must be percentage or fixed")
	case c.Value.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	case c.Type == enums.CouponTypePercentage && c.Value.GreaterThan(decimal.NewFromInt(100)):
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage value must not exceed 100")
	case c.MinOrderCents < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "min order value must not be negative")
	case c.ExpiresAt.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry date is required")
	}
	return nil
}
