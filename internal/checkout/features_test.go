package checkout

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type checkoutTestContext struct {
	t          *testing.T
	f          *fixture
	tee        *product.ProductDTO
	err        error
	validation *coupons.ValidationDTO
	placed     *PlaceOrderResult
}

func (c *checkoutTestContext) reset() {
	c.f = newFixture(c.t, fixtureOptions{})
	c.tee = nil
	c.err = nil
	c.validation = nil
	c.placed = nil
}

func (c *checkoutTestContext) theCatalogHasTheBasicTee() error {
	c.tee = c.f.createTee(c.t)
	return nil
}

func (c *checkoutTestContext) theProductHasVariants(n int) error {
	if got := len(c.tee.Variants); got != n {
		return fmt.Errorf("expected %d variants, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theProductBasePriceIs(cents int) error {
	if c.tee.BasePriceCents != cents {
		return fmt.Errorf("expected base price %d, got %d", cents, c.tee.BasePriceCents)
	}
	return nil
}

func (c *checkoutTestContext) theVariantHasStock(key string, stock int) error {
	size, color, ok := strings.Cut(key, "-")
	if !ok {
		return fmt.Errorf("variant key %q must be SIZE-COLOR", key)
	}
	if got := c.f.stock(c.t, c.tee, size, color); got != stock {
		return fmt.Errorf("expected %s stock %d, got %d", key, stock, got)
	}
	return nil
}

func (c *checkoutTestContext) iAddToMyCart(qty int, size, color string) error {
	_, c.err = c.f.carts.AddItem(context.Background(), c.f.userID, cart.ItemInput{
		ProductID: c.tee.ID,
		Selector:  product.Selector{Size: size, Color: color},
		Quantity:  qty,
	})
	return nil
}

func (c *checkoutTestContext) myCartHolds(qty int, size, color string) error {
	if err := c.iAddToMyCart(qty, size, color); err != nil {
		return err
	}
	return c.err
}

func (c *checkoutTestContext) theRequestFailsWith(code string) error {
	typed := pkgerrors.As(c.err)
	if typed == nil {
		return fmt.Errorf("expected %s, got %v", code, c.err)
	}
	if string(typed.Code()) != code {
		return fmt.Errorf("expected %s, got %s", code, typed.Code())
	}
	return nil
}

func (c *checkoutTestContext) theErrorReportsAvailable(n int) error {
	details, _ := pkgerrors.As(c.err).Details().(map[string]any)
	if details["available"] != n {
		return fmt.Errorf("expected available %d, got %v", n, details["available"])
	}
	return nil
}

func (c *checkoutTestContext) aPercentageCoupon(code string, percent, maxDiscount, minOrder int) error {
	_, err := c.f.coupons.Create(context.Background(), coupons.CreateInput{
		Code:             code,
		Type:             enums.CouponTypePercentage,
		Value:            decimal.NewFromInt(int64(percent)),
		MinOrderCents:    minOrder,
		MaxDiscountCents: &maxDiscount,
		ExpiresAt:        time.Now().Add(48 * time.Hour),
	})
	return err
}

func (c *checkoutTestContext) theCouponHasBeenUsed(code string, limit, used int) error {
	return c.f.conn.Model(&models.Coupon{}).
		Where("code = ?", code).
		Updates(map[string]any{"usage_limit": limit, "used_count": used}).Error
}

func (c *checkoutTestContext) iValidateAgainstACartTotalOf(code string, total int) error {
	c.validation, c.err = c.f.coupons.Validate(context.Background(), code, total)
	return nil
}

func (c *checkoutTestContext) theDiscountIs(cents int) error {
	if c.err != nil {
		return c.err
	}
	if c.validation.DiscountCents != cents {
		return fmt.Errorf("expected discount %d, got %d", cents, c.validation.DiscountCents)
	}
	return nil
}

func (c *checkoutTestContext) theCouponIsRejectedWithReason(reason string) error {
	if err := c.theRequestFailsWith(string(pkgerrors.CodeCouponInvalid)); err != nil {
		return err
	}
	details, _ := pkgerrors.As(c.err).Details().(map[string]any)
	if details["reason"] != reason {
		return fmt.Errorf("expected reason %q, got %v", reason, details["reason"])
	}
	return nil
}

func (c *checkoutTestContext) iPlaceACashOnDeliveryOrderWithCoupon(code string) error {
	c.placed, c.err = c.f.svc.PlaceOrder(context.Background(), c.f.userID, PlaceOrderInput{
		AddressID:     c.f.addressID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    code,
	})
	return c.err
}

func (c *checkoutTestContext) pricing(field string, want int) error {
	if c.placed == nil {
		return fmt.Errorf("no order was placed")
	}
	p := c.placed.Order.Pricing
	got := map[string]int{
		"subtotal": p.SubtotalCents,
		"shipping": p.ShippingCents,
		"discount": p.DiscountCents,
		"total":    p.TotalCents,
	}[field]
	if got != want {
		return fmt.Errorf("expected order %s %d, got %d", field, want, got)
	}
	return nil
}

func (c *checkoutTestContext) myCartIsEmpty() error {
	got, err := c.f.carts.GetCart(context.Background(), c.f.userID)
	if err != nil {
		return err
	}
	if len(got.Items) != 0 {
		return fmt.Errorf("expected an empty cart, got %d lines", len(got.Items))
	}
	return nil
}

func initializeScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &checkoutTestContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		ctx.Step(`^the catalog has the basic tee$`, tc.theCatalogHasTheBasicTee)
		ctx.Step(`^the product has (\d+) variants$`, tc.theProductHasVariants)
		ctx.Step(`^the product base price is (\d+)$`, tc.theProductBasePriceIs)
		ctx.Step(`^the "([^"]*)" variant has stock (\d+)$`, tc.theVariantHasStock)
		ctx.Step(`^I add (\d+) "([^"]*)" "([^"]*)" to my cart$`, tc.iAddToMyCart)
		ctx.Step(`^my cart holds (\d+) "([^"]*)" "([^"]*)"$`, tc.myCartHolds)
		ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
		ctx.Step(`^the error reports (\d+) available$`, tc.theErrorReportsAvailable)
		ctx.Step(`^a percentage coupon "([^"]*)" of (\d+) with max discount (\d+) and minimum order (\d+)$`, tc.aPercentageCoupon)
		ctx.Step(`^the coupon "([^"]*)" has a usage limit of (\d+) and has been used (\d+) times?$`, tc.theCouponHasBeenUsed)
		ctx.Step(`^I validate "([^"]*)" against a cart total of (\d+)$`, tc.iValidateAgainstACartTotalOf)
		ctx.Step(`^the discount is (\d+)$`, tc.theDiscountIs)
		ctx.Step(`^the coupon is rejected with reason "([^"]*)"$`, tc.theCouponIsRejectedWithReason)
		ctx.Step(`^I place a cash on delivery order with coupon "([^"]*)"$`, tc.iPlaceACashOnDeliveryOrderWithCoupon)
		ctx.Step(`^the order (subtotal|shipping|discount|total) is (\d+)$`, tc.pricing)
		ctx.Step(`^my cart is empty$`, tc.myCartIsEmpty)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(t),
		Options: &godog.Options{
			Format: "pretty",
			Paths:  []string{"features/checkout.feature"},
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
