package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return evalNow }
	return impl, conn
}

func createSave20(t *testing.T, svc Service, limit *int) *CouponDTO {
	t.Helper()
	dto, err := svc.Create(context.Background(), CreateInput{
		Code:             " save20 ",
		Type:             enums.CouponTypePercentage,
		Value:            decimal.NewFromInt(20),
		MinOrderCents:    20000,
		MaxDiscountCents: intPtr(10000),
		ExpiresAt:        evalNow.Add(48 * time.Hour),
		UsageLimit:       limit,
	})
	require.NoError(t, err)
	return dto
}

func TestCreateNormalizesCodeAndRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	dto := createSave20(t, svc, nil)
	assert.Equal(t, "SAVE20", dto.Code)
	assert.True(t, dto.IsActive)

	_, err := svc.Create(context.Background(), CreateInput{
		Code:      "Save20",
		Type:      enums.CouponTypeFixed,
		Value:     decimal.NewFromInt(5),
		ExpiresAt: evalNow.Add(time.Hour),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{
		Code:      "BIG",
		Type:      enums.CouponTypePercentage,
		Value:     decimal.NewFromInt(150),
		ExpiresAt: evalNow.Add(time.Hour),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), CreateInput{Code: "NOEXP", Type: enums.CouponTypeFixed, Value: decimal.NewFromInt(1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateIsReadOnly(t *testing.T) {
	svc, _ := newTestService(t)
	created := createSave20(t, svc, intPtr(3))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res, err := svc.Validate(ctx, "save20", 100000)
		require.NoError(t, err)
		assert.Equal(t, 10000, res.DiscountCents)
	}

	stored, err := svc.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestValidateReportsReason(t *testing.T) {
	svc, _ := newTestService(t)
	createSave20(t, svc, nil)

	_, err := svc.Validate(context.Background(), "SAVE20", 100)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeCouponInvalid, typed.Code())
	assert.Equal(t, map[string]any{"reason": "below_minimum_order"}, typed.Details())

	_, err = svc.Validate(context.Background(), "NOPE", 100)
	assert.Equal(t, map[string]any{"reason": "not_found"}, pkgerrors.As(err).Details())
}

func TestApplyIncrementsExactlyOnceUntilLimit(t *testing.T) {
	svc, _ := newTestService(t)
	createSave20(t, svc, intPtr(2))
	ctx := context.Background()

	first, err := svc.Apply(ctx, "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, 1, first.UsedCount)

	second, err := svc.Apply(ctx, "SAVE20")
	require.NoError(t, err)
	assert.Equal(t, 2, second.UsedCount)

	_, err = svc.Apply(ctx, "SAVE20")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponInvalid))

	_, err = svc.Validate(ctx, "SAVE20", 100000)
	assert.Equal(t, map[string]any{"reason": "usage_limit_reached"}, pkgerrors.As(err).Details())
}

func TestRedeemAndReleaseInsideTransaction(t *testing.T) {
	svc, conn := newTestService(t)
	created := createSave20(t, svc, intPtr(1))
	ctx := context.Background()

	var redemption *Redemption
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		var err error
		redemption, err = svc.Redeem(ctx, tx, "save20", 100000)
		return err
	}))
	assert.Equal(t, 10000, redemption.DiscountCents)
	assert.Equal(t, 1, redemption.UsedCount)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Redeem(ctx, tx, "SAVE20", 100000)
		return err
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponInvalid))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Release(ctx, tx, "SAVE20")
	}))
	stored, err := svc.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestRedeemRollsBackWithTransaction(t *testing.T) {
	svc, conn := newTestService(t)
	created := createSave20(t, svc, nil)
	ctx := context.Background()

	_ = conn.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Redeem(ctx, tx, "SAVE20", 100000); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeStockInsufficient, "later step failed")
	})

	stored, err := svc.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UsedCount)
}

func TestAdminUpdateToggleDelete(t *testing.T) {
	svc, _ := newTestService(t)
	created := createSave20(t, svc, nil)
	ctx := context.Background()

	desc := "Spring sale"
	fixed := enums.CouponTypeFixed
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Description: &desc, Type: &fixed})
	require.NoError(t, err)
	assert.Equal(t, "Spring sale", updated.Description)
	assert.Nil(t, updated.MaxDiscountCents, "fixed coupons carry no cap")

	toggled, err := svc.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.Validate(ctx, "SAVE20", 100000)
	assert.Equal(t, map[string]any{"reason": "inactive"}, pkgerrors.As(err).Details())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))
}
