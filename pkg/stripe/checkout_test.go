package stripe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

func baseRequest() CheckoutSessionRequest {
	return CheckoutSessionRequest{
		OrderID:     "8d5e8a36-5a1c-4b0e-9d8e-0e3b6b7b1c11",
		OrderNumber: "ORD123456789",
		Currency:    "INR",
		Lines: []CheckoutLine{
			{Name: "Linen Shirt - Black / M", UnitAmountCents: 129900, Quantity: 2},
		},
		ShippingCents: 5000,
		TotalCents:    264800,
		SuccessURL:    "https://shop.example.com/verify?success=true",
		CancelURL:     "https://shop.example.com/verify?success=false",
	}
}

func TestBuildCheckoutSessionParamsItemized(t *testing.T) {
	params, err := buildCheckoutSessionParams(baseRequest())
	require.NoError(t, err)

	require.Len(t, params.LineItems, 2)
	assert.Equal(t, "inr", *params.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(129900), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
	assert.Equal(t, shippingLineName, *params.LineItems[1].PriceData.ProductData.Name)
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	assert.Equal(t, "ORD123456789", params.Metadata["order_number"])
	assert.Nil(t, params.CustomerEmail)
}

func TestBuildCheckoutSessionParamsDiscountCollapsesToTotal(t *testing.T) {
	req := baseRequest()
	req.DiscountCents = 20000
	req.TotalCents = 244800
	req.CustomerEmail = "asha@example.com"

	params, err := buildCheckoutSessionParams(req)
	require.NoError(t, err)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(244800), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "Order ORD123456789", *params.LineItems[0].PriceData.ProductData.Name)
	require.NotNil(t, params.CustomerEmail)
}

func TestBuildCheckoutSessionParamsValidation(t *testing.T) {
	cases := map[string]func(*CheckoutSessionRequest){
		"missing order":    func(r *CheckoutSessionRequest) { r.OrderID = "" },
		"missing urls":     func(r *CheckoutSessionRequest) { r.CancelURL = "" },
		"zero total":       func(r *CheckoutSessionRequest) { r.TotalCents = 0 },
		"missing currency": func(r *CheckoutSessionRequest) { r.Currency = " " },
		"bad quantity":     func(r *CheckoutSessionRequest) { r.Lines[0].Quantity = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := baseRequest()
			req.Lines = append([]CheckoutLine(nil), req.Lines...)
			mutate(&req)
			_, err := buildCheckoutSessionParams(req)
			require.Error(t, err)
		})
	}
}

func TestSessionResult(t *testing.T) {
	result := SessionResult(&stripe.CheckoutSession{
		ID:            "cs_test_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Status:        stripe.CheckoutSessionStatusComplete,
		Metadata:      map[string]string{"order_id": "abc"},
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
	})
	require.NotNil(t, result)
	assert.True(t, result.Paid)
	assert.False(t, result.Expired)
	assert.False(t, result.Open)
	assert.Equal(t, "abc", result.OrderID)
	assert.Equal(t, "pi_1", result.PaymentReference)

	expired := SessionResult(&stripe.CheckoutSession{
		ID:                "cs_test_2",
		Status:            stripe.CheckoutSessionStatusExpired,
		ClientReferenceID: "def",
	})
	assert.True(t, expired.Expired)
	assert.False(t, expired.Paid)
	assert.Equal(t, "def", expired.OrderID)

	open := SessionResult(&stripe.CheckoutSession{ID: "cs_test_3", Status: stripe.CheckoutSessionStatusOpen})
	assert.True(t, open.Open)
	assert.False(t, open.Expired)

	assert.Nil(t, SessionResult(nil))
}

func TestBuildCheckoutSessionParamsExpiry(t *testing.T) {
	params, err := buildCheckoutSessionParams(baseRequest())
	require.NoError(t, err)
	assert.Nil(t, params.ExpiresAt)

	req := baseRequest()
	req.ExpiresAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	params, err = buildCheckoutSessionParams(req)
	require.NoError(t, err)
	require.NotNil(t, params.ExpiresAt)
	assert.Equal(t, req.ExpiresAt.Unix(), *params.ExpiresAt)
}

func TestSessionWindow(t *testing.T) {
	assert.Equal(t, MinSessionWindow, SessionWindow(5*time.Minute))
	assert.Equal(t, time.Hour, SessionWindow(time.Hour))
	assert.Equal(t, MaxSessionWindow, SessionWindow(72*time.Hour))
}

func TestExpireCheckoutSessionRequiresClient(t *testing.T) {
	var c *Client
	_, err := c.ExpireCheckoutSession(context.Background(), "cs_test_1")
	assert.Error(t, err)
}
