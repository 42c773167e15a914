package stripewebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]any
	ttls   map[string]time.Duration
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, _ := f.values[key].(string)
	return v, f.err
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return f.err
}

func TestReplayGuardClaimsOnce(t *testing.T) {
	store := newFakeStore()
	guard, err := NewReplayGuard(store, 72*time.Hour)
	require.NoError(t, err)
	guard.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	dup, err := guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, "2026-03-01T09:30:00Z", store.values["idem:stripe-webhook:evt_1"])
	assert.Equal(t, 72*time.Hour, store.ttls["idem:stripe-webhook:evt_1"])

	dup, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, dup)

	require.NoError(t, guard.Forget(ctx, "evt_1"))
	dup, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestReplayGuardRejectsBadInput(t *testing.T) {
	_, err := NewReplayGuard(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewReplayGuard(newFakeStore(), 0)
	assert.Error(t, err)

	store := newFakeStore()
	guard, err := NewReplayGuard(store, time.Hour)
	require.NoError(t, err)
	for _, id := range []string{"", "  ", "cs_test_1"} {
		_, err := guard.Claim(context.Background(), id)
		assert.Error(t, err, id)
		assert.Error(t, guard.Forget(context.Background(), id), id)
	}

	store.err = errors.New("redis down")
	_, err = guard.Claim(context.Background(), "evt_2")
	assert.ErrorIs(t, err, store.err)
}
