package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(Dependencies{}, Options{Currency: "INR"}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestPlaceOrderCODDebitsStockAndClearsCart(t *testing.T) {
	f := newFixture(t, fixtureOptions{shippingCents: 50})
	tee := f.createTee(t)
	ctx := context.Background()
	f.addToCart(t, tee, "M", "Black", 2)

	result, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{AddressID: f.addressID, PaymentMethod: enums.PaymentMethodCOD})
	require.NoError(t, err)
	assert.Empty(t, result.PaymentURL)

	order := result.Order
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD"))
	assert.Len(t, order.OrderNumber, 12)
	assert.Equal(t, enums.OrderStatusPlaced, order.Status)
	assert.Equal(t, enums.PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, 1000, order.Pricing.SubtotalCents)
	assert.Equal(t, 50, order.Pricing.ShippingCents)
	assert.Equal(t, 1050, order.Pricing.TotalCents)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "BT-BLA-M", order.Items[0].SKU)
	assert.Equal(t, "Bengaluru", order.ShippingAddress.City)

	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPlaced))

	got, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestPlaceOrderAppliesCouponDiscount(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	tee := f.createTee(t)
	f.createSave20(t, nil)
	f.addToCart(t, tee, "S", "Black", 2)

	result, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    " save20 ",
	})
	require.NoError(t, err)

	pricing := result.Order.Pricing
	assert.Equal(t, 900, pricing.SubtotalCents)
	assert.Equal(t, 100, pricing.DiscountCents)
	assert.Equal(t, 800, pricing.TotalCents)
	require.NotNil(t, result.Order.CouponCode)
	assert.Equal(t, "SAVE20", *result.Order.CouponCode)
	assert.Equal(t, 1, f.couponUses(t, "SAVE20"))
	assert.Equal(t, int64(1), f.events(t, enums.EventCouponRedeemed))
}

func TestPlaceOrderInvalidCouponRollsBackStock(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	tee := f.createTee(t)
	f.addToCart(t, tee, "M", "White", 2)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodCOD,
		CouponCode:    "NOPE",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCouponInvalid))

	assert.Equal(t, 5, f.stock(t, tee, "M", "White"))
	assert.Zero(t, f.orderCount(t))
	assert.Zero(t, f.events(t, enums.EventOrderPlaced))

	got, err := f.carts.GetCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestPlaceOrderRejectsEmptyCartAndForeignAddress(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	tee := f.createTee(t)
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{AddressID: f.addressID, PaymentMethod: enums.PaymentMethodCOD})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	f.addToCart(t, tee, "M", "Black", 1)
	_, err = f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{AddressID: uuid.New(), PaymentMethod: enums.PaymentMethodCOD})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{AddressID: f.addressID, PaymentMethod: "cheque"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderOnlineRequiresGateway(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	tee := f.createTee(t)
	f.addToCart(t, tee, "M", "Black", 1)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodStripe,
		ReturnURL:     "https://shop.example.com",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, f.orderCount(t))
}

func TestDebitStockReportsAvailable(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	tee := f.createTee(t)
	impl := f.svc.(*service)

	lines := []cart.PricedLine{{
		Item:     models.CartItem{ProductID: tee.ID},
		Resolved: product.ResolvedVariant{VariantID: variantID(t, tee, "S", "Black"), SKU: "BT-BLA-S"},
		Quantity: 4,
	}}
	err := impl.tx.WithTx(context.Background(), func(tx *gorm.DB) error {
		return impl.debitStock(context.Background(), tx, lines)
	})

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStockInsufficient, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, details["available"])
	assert.Equal(t, 3, f.stock(t, tee, "S", "Black"))
}

func placeStripeOrder(t *testing.T, f *fixture, p *product.ProductDTO) *PlaceOrderResult {
	t.Helper()
	f.addToCart(t, p, "M", "Black", 2)
	result, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodStripe,
		ReturnURL:     "https://shop.example.com/verify",
		CustomerEmail: "asha@example.com",
	})
	require.NoError(t, err)
	return result
}

func TestPlaceOrderStripeOpensSession(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)

	result := placeStripeOrder(t, f, tee)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", result.PaymentURL)
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, result.Order.ID.String(), req.OrderID)
	assert.Equal(t, int64(1000), req.TotalCents)
	assert.Contains(t, req.SuccessURL, "success=true")
	assert.Contains(t, req.SuccessURL, "orderId="+result.Order.ID.String())
	assert.Contains(t, req.SuccessURL, "{CHECKOUT_SESSION_ID}")
	assert.Contains(t, req.CancelURL, "success=false")

	stored, err := f.orders.FindByID(context.Background(), result.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentSessionID)
	assert.Equal(t, "cs_test_1", *stored.PaymentSessionID)

	// the cart survives until the payment is confirmed
	got, err := f.carts.GetCart(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestPlaceOrderGatewayFailureCompensates(t *testing.T) {
	gateway := newStubGateway()
	gateway.createErr = errors.New("stripe unavailable")
	f := newFixture(t, fixtureOptions{gateway: gateway})
	tee := f.createTee(t)
	f.createSave20(t, nil)
	f.addToCart(t, tee, "M", "Black", 2)

	_, err := f.svc.PlaceOrder(context.Background(), f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodStripe,
		CouponCode:    "SAVE20",
		ReturnURL:     "https://shop.example.com/verify",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, 0, f.couponUses(t, "SAVE20"))
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPaymentFailed))
}

func TestVerifyPaymentMarksPaidOnce(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	_, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	f.gateway.settle("cs_test_1", "pi_123")
	result, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: true, SessionID: "cs_test_1"})
	require.NoError(t, err)
	assert.True(t, result.Paid)
	require.NotNil(t, result.Order)
	assert.Equal(t, enums.PaymentStatusPaid, result.Order.Payment.Status)

	again, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: true})
	require.NoError(t, err)
	assert.True(t, again.Paid)
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPaid))

	stored, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, "pi_123", *stored.PaymentReference)

	got, err := f.carts.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestVerifyPaymentFailureDeletesOrder(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	result, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: false})
	require.NoError(t, err)
	assert.False(t, result.Paid)
	assert.Nil(t, result.Order)

	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, tee, "M", "Black"))

	_, err = f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: false})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPaymentFailed))
}

func TestVerifyPaymentOwnershipAndCOD(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	_, err := f.svc.VerifyPayment(ctx, uuid.New(), VerifyPaymentInput{OrderID: placed.Order.ID, Success: false})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	f.addToCart(t, tee, "M", "White", 1)
	cod, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{AddressID: f.addressID, PaymentMethod: enums.PaymentMethodCOD})
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: cod.Order.ID, Success: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestWebhookSessionEvents(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()

	paid := placeStripeOrder(t, f, tee)
	require.NoError(t, f.svc.HandleSessionCompleted(ctx, stripe.CheckoutSessionResult{
		ID:               "cs_test_1",
		Paid:             true,
		PaymentReference: "pi_1",
		OrderID:          paid.Order.ID.String(),
	}))
	stored, err := f.orders.FindByID(ctx, paid.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)

	// a late expiry must not touch a paid order
	require.NoError(t, f.svc.HandleSessionExpired(ctx, stripe.CheckoutSessionResult{ID: "cs_test_1", Expired: true}))
	assert.Equal(t, int64(1), f.orderCount(t))

	abandoned := placeStripeOrder(t, f, tee)
	require.NoError(t, f.svc.HandleSessionExpired(ctx, stripe.CheckoutSessionResult{ID: "cs_test_2", Expired: true}))
	_, err = f.orders.FindByID(ctx, abandoned.Order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))

	// unknown unpaid sessions are acknowledged silently
	require.NoError(t, f.svc.HandleSessionCompleted(ctx, stripe.CheckoutSessionResult{ID: "cs_missing", OrderID: uuid.NewString()}))
	assert.Zero(t, f.events(t, enums.EventPaymentOrphaned))
}

func TestWebhookLatePaymentIsReportedForRefund(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	require.NoError(t, f.svc.HandleSessionExpired(ctx, stripe.CheckoutSessionResult{ID: "cs_test_1", Expired: true}))
	assert.Zero(t, f.orderCount(t))

	require.NoError(t, f.svc.HandleSessionCompleted(ctx, stripe.CheckoutSessionResult{
		ID:               "cs_test_1",
		Paid:             true,
		PaymentReference: "pi_late",
		OrderID:          placed.Order.ID.String(),
	}))
	assert.Equal(t, int64(1), f.events(t, enums.EventPaymentOrphaned))
	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, tee, "M", "Black"))

	var row models.OutboxEvent
	require.NoError(t, f.conn.Where("event_type = ?", enums.EventPaymentOrphaned).First(&row).Error)
	assert.Equal(t, placed.Order.ID, row.AggregateID)

	// without a usable order id there is nothing to attach the event to
	require.NoError(t, f.svc.HandleSessionCompleted(ctx, stripe.CheckoutSessionResult{ID: "cs_other", Paid: true, OrderID: "legacy"}))
	assert.Equal(t, int64(1), f.events(t, enums.EventPaymentOrphaned))
}

func TestExpirePendingPayments(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	n, err := f.svc.ExpirePendingPayments(ctx, time.Now().Add(-48*time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.ExpirePendingPayments(ctx, time.Now().Add(48*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.orders.FindByID(ctx, placed.Order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, 5, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, []string{"cs_test_1"}, f.gateway.expired)
}

func TestExpirePendingPaymentsSettlesPaidSessions(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)
	f.gateway.settle("cs_test_1", "pi_cron")

	n, err := f.svc.ExpirePendingPayments(ctx, time.Now().Add(48*time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := f.orders.FindByID(ctx, placed.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentReference)
	assert.Equal(t, "pi_cron", *stored.PaymentReference)
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPaid))
	assert.Zero(t, f.events(t, enums.EventOrderPaymentFailed))
	assert.Empty(t, f.gateway.expired)
}

func TestExpirePendingPaymentsKeepsUnsettledOrders(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	inFlight := placeStripeOrder(t, f, tee)
	f.gateway.processing("cs_test_1")

	n, err := f.svc.ExpirePendingPayments(ctx, time.Now().Add(48*time.Hour), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	stored, err := f.orders.FindByID(ctx, inFlight.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)

	// an unreachable gateway keeps the order for the next run
	delete(f.gateway.sessions, "cs_test_1")
	n, err = f.svc.ExpirePendingPayments(ctx, time.Now().Add(48*time.Hour), 10)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), f.orderCount(t))

	// so does a session that could not be closed
	f.gateway.sessions["cs_test_1"] = stripe.CheckoutSessionResult{ID: "cs_test_1", Open: true}
	f.gateway.expireErr = errors.New("session already completed")
	_, err = f.svc.ExpirePendingPayments(ctx, time.Now().Add(48*time.Hour), 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, int64(1), f.orderCount(t))
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))
}

func TestVerifyPaymentCancelChecksGateway(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)

	// the buyer paid in another tab, then hit cancel on a stale page
	f.gateway.settle("cs_test_1", "pi_tab")
	result, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: false})
	require.NoError(t, err)
	assert.True(t, result.Paid)
	require.NotNil(t, result.Order)
	assert.Equal(t, enums.PaymentStatusPaid, result.Order.Payment.Status)
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, int64(1), f.orderCount(t))

	f.addToCart(t, tee, "M", "White", 1)
	second, err := f.svc.PlaceOrder(ctx, f.userID, PlaceOrderInput{
		AddressID:     f.addressID,
		PaymentMethod: enums.PaymentMethodStripe,
		ReturnURL:     "https://shop.example.com/verify",
	})
	require.NoError(t, err)
	f.gateway.processing("cs_test_2")
	_, err = f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: second.Order.ID, Success: false})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 4, f.stock(t, tee, "M", "White"))
}

func TestAdminCancelWaitsForOnlinePayment(t *testing.T) {
	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	tee := f.createTee(t)
	ctx := context.Background()
	placed := placeStripeOrder(t, f, tee)
	require.Equal(t, 3, f.stock(t, tee, "M", "Black"))

	admin := orders.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	_, err := f.admin.UpdateStatus(ctx, admin, placed.Order.ID, enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 3, f.stock(t, tee, "M", "Black"))

	result, err := f.svc.VerifyPayment(ctx, f.userID, VerifyPaymentInput{OrderID: placed.Order.ID, Success: false})
	require.NoError(t, err)
	assert.False(t, result.Paid)
	assert.Equal(t, 5, f.stock(t, tee, "M", "Black"))
	assert.Equal(t, int64(1), f.events(t, enums.EventOrderPaymentFailed))
	assert.Zero(t, f.events(t, enums.EventOrderStatusChanged))
}

func TestPlaceOrderBoundsSessionLifetime(t *testing.T) {
	for name, tc := range map[string]struct {
		window time.Duration
		want   time.Duration
	}{
		"configured": {window: 45 * time.Minute, want: 45 * time.Minute},
		"too short":  {window: 5 * time.Minute, want: stripe.MinSessionWindow},
		"too long":   {window: 48 * time.Hour, want: stripe.MaxSessionWindow},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, fixtureOptions{gateway: newStubGateway(), paymentWindow: tc.window})
			tee := f.createTee(t)
			before := time.Now()
			placeStripeOrder(t, f, tee)

			require.Len(t, f.gateway.requests, 1)
			expires := f.gateway.requests[0].ExpiresAt
			assert.WithinDuration(t, before.Add(tc.want), expires, 5*time.Second)
		})
	}

	f := newFixture(t, fixtureOptions{gateway: newStubGateway()})
	placeStripeOrder(t, f, f.createTee(t))
	assert.True(t, f.gateway.requests[0].ExpiresAt.IsZero())
}

func TestVerifyURL(t *testing.T) {
	id := uuid.MustParse("7d9f1c2e-0000-4000-8000-000000000001")
	assert.Equal(t,
		"https://shop.example.com/verify?orderId=7d9f1c2e-0000-4000-8000-000000000001&success=false",
		verifyURL("https://shop.example.com/verify", id, false))
	assert.Equal(t,
		"https://shop.example.com/verify?orderId=7d9f1c2e-0000-4000-8000-000000000001&success=true&session_id={CHECKOUT_SESSION_ID}",
		verifyURL("https://shop.example.com/verify", id, true))
}
