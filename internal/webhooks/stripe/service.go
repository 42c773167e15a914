package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/storefront-backend/pkg/stripe"
)

// sessionHandler settles orders from hosted checkout session outcomes.
type sessionHandler interface {
	HandleSessionCompleted(ctx context.Context, session pkgstripe.CheckoutSessionResult) error
	HandleSessionExpired(ctx context.Context, session pkgstripe.CheckoutSessionResult) error
}

type ServiceParams struct {
	Checkout sessionHandler
}

type Service struct {
	checkout sessionHandler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service required")
	}
	return &Service{checkout: params.Checkout}, nil
}

// HandleEvent routes checkout session events. Other event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.checkout.HandleSessionCompleted(ctx, *session)
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		return s.checkout.HandleSessionExpired(ctx, *session)
	default:
		return nil
	}
}

func decodeSession(event *stripe.Event) (*pkgstripe.CheckoutSessionResult, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}
	return pkgstripe.SessionResult(&session), nil
}
