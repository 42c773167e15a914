package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPlaced, enums.OrderStatusPacking, true},
		{enums.OrderStatusPlaced, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPlaced, enums.OrderStatusShipped, false},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{enums.OrderStatusReturnRequested, enums.OrderStatusDelivered, true},
		{enums.OrderStatusCancelled, enums.OrderStatusRefunded, true},
		{enums.OrderStatusRefunded, enums.OrderStatusPlaced, false},
		{enums.OrderStatusDelivered, enums.OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStatusesInWorkflowOrder(t *testing.T) {
	statuses := Statuses()
	assert.Len(t, statuses, 9)
	assert.Equal(t, StatusOption{Label: "Order Placed", Value: enums.OrderStatusPlaced}, statuses[0])
	assert.Equal(t, enums.OrderStatusRefunded, statuses[8].Value)
	assert.Empty(t, NextStatuses(enums.OrderStatusRefunded))
}

func TestOrderNumberFormat(t *testing.T) {
	now := time.UnixMilli(1_767_000_123_456)
	assert.Equal(t, "ORD123456007", formatOrderNumber(now, 7))
	assert.Regexp(t, `^ORD\d{9}$`, NewOrderNumber(time.Now()))
}
