package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
)

const shippingLineName = "Delivery Charges"

// Stripe only accepts a session expiry between 30 minutes and 24 hours after creation.
const (
	MinSessionWindow = 30 * time.Minute
	MaxSessionWindow = 24 * time.Hour
)

// SessionWindow clamps a payment window to what Stripe accepts.
func SessionWindow(d time.Duration) time.Duration {
	return min(max(d, MinSessionWindow), MaxSessionWindow)
}

// CheckoutLine is one priced line on a hosted checkout page.
type CheckoutLine struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

// CheckoutSessionRequest describes the order being paid for.
type CheckoutSessionRequest struct {
	OrderID       string
	OrderNumber   string
	Currency      string
	Lines         []CheckoutLine
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	// ExpiresAt closes the hosted page; zero leaves Stripe's default.
	ExpiresAt     time.Time
}

// CheckoutSession is the subset of Stripe's session the storefront keeps.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionResult reports the payment state of a session.
type CheckoutSessionResult struct {
	ID               string
	Paid             bool
	Open             bool
	Expired          bool
	PaymentReference string
	OrderID          string
}

// CreateCheckoutSession opens a hosted payment page for the order total.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	params, err := buildCheckoutSessionParams(req)
	if err != nil {
		return nil, err
	}
	session, err := c.api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// GetCheckoutSession fetches a session so a redirect can be confirmed server side.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionResult, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	session, err := c.api.V1CheckoutSessions.Retrieve(ctx, sessionID, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return SessionResult(session), nil
}

// ExpireCheckoutSession closes an open session so the buyer can no longer pay it.
// Stripe refuses to expire a session that already completed; the caller should
// re-read the session in that case.
func (c *Client) ExpireCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSessionResult, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}
	session, err := c.api.V1CheckoutSessions.Expire(ctx, sessionID, &stripe.CheckoutSessionExpireParams{})
	if err != nil {
		return nil, fmt.Errorf("expire checkout session: %w", err)
	}
	return SessionResult(session), nil
}

// SessionResult flattens a Stripe session, whether fetched or delivered by webhook.
func SessionResult(session *stripe.CheckoutSession) *CheckoutSessionResult {
	if session == nil {
		return nil
	}
	result := &CheckoutSessionResult{
		ID:      session.ID,
		Paid:    session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Open:    session.Status == stripe.CheckoutSessionStatusOpen,
		Expired: session.Status == stripe.CheckoutSessionStatusExpired,
		OrderID: session.ClientReferenceID,
	}
	if result.OrderID == "" && session.Metadata != nil {
		result.OrderID = session.Metadata["order_id"]
	}
	if session.PaymentIntent != nil {
		result.PaymentReference = session.PaymentIntent.ID
	}
	return result
}

// buildCheckoutSessionParams itemizes the order when no discount applies. Stripe
// cannot subtract an ad-hoc amount, so discounted orders are charged as one line
// carrying the total.
func buildCheckoutSessionParams(req CheckoutSessionRequest) (*stripe.CheckoutSessionCreateParams, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, errors.New("order id is required")
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.CancelURL) == "" {
		return nil, errors.New("success and cancel urls are required")
	}
	if req.TotalCents <= 0 {
		return nil, errors.New("total must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, errors.New("currency is required")
	}

	var lines []*stripe.CheckoutSessionCreateLineItemParams
	if req.DiscountCents > 0 {
		lines = append(lines, lineItem(currency, "Order "+req.OrderNumber, req.TotalCents, 1))
	} else {
		for _, line := range req.Lines {
			if line.Quantity <= 0 || line.UnitAmountCents < 0 {
				return nil, fmt.Errorf("invalid line %q", line.Name)
			}
			lines = append(lines, lineItem(currency, line.Name, line.UnitAmountCents, line.Quantity))
		}
		if req.ShippingCents > 0 {
			lines = append(lines, lineItem(currency, shippingLineName, req.ShippingCents, 1))
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("at least one line is required")
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems:         lines,
		Metadata: map[string]string{
			"order_id":     req.OrderID,
			"order_number": req.OrderNumber,
		},
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	return params, nil
}

func lineItem(currency, name string, unitAmount, quantity int64) *stripe.CheckoutSessionCreateLineItemParams {
	return &stripe.CheckoutSessionCreateLineItemParams{
		PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
			Currency: stripe.String(currency),
			ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(unitAmount),
		},
		Quantity: stripe.Int64(quantity),
	}
}
