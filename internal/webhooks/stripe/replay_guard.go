package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const replayScope = "stripe-webhook"

// ReplayGuard remembers which Stripe events were already handled. Stripe
// delivers at least once and retries for up to three days, so a claim should
// outlive that window.
type ReplayGuard struct {
	store  redis.IdempotencyStore
	window time.Duration
	now    func() time.Time
}

// NewReplayGuard claims event ids in store for window.
func NewReplayGuard(store redis.IdempotencyStore, window time.Duration) (*ReplayGuard, error) {
	switch {
	case store == nil:
		return nil, errors.New("replay store is required")
	case window <= 0:
		return nil, errors.New("replay window must be positive")
	}
	return &ReplayGuard{store: store, window: window, now: time.Now}, nil
}

// Claim marks the event as being handled. It reports true when an earlier
// delivery already holds the claim.
func (g *ReplayGuard) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.SetNX(ctx, key, g.now().UTC().Format(time.RFC3339), g.window)
	if err != nil {
		return false, fmt.Errorf("claim stripe event %s: %w", eventID, err)
	}
	return !claimed, nil
}

// Forget drops a claim so Stripe's next retry of the event is handled again.
func (g *ReplayGuard) Forget(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	if err := g.store.Del(ctx, key); err != nil {
		return fmt.Errorf("forget stripe event %s: %w", eventID, err)
	}
	return nil
}

func (g *ReplayGuard) key(eventID string) (string, error) {
	eventID = strings.TrimSpace(eventID)
	if !strings.HasPrefix(eventID, "evt_") {
		return "", fmt.Errorf("invalid stripe event id %q", eventID)
	}
	return g.store.IdempotencyKey(replayScope, eventID), nil
}
