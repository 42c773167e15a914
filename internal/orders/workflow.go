package orders

import "github.com/angelmondragon/storefront-backend/pkg/enums"

// transitions lists the statuses an order may move to from each status.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPlaced:          {enums.OrderStatusPacking, enums.OrderStatusCancelled},
	enums.OrderStatusPacking:         {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:         {enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered},
	enums.OrderStatusOutForDelivery:  {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:       {enums.OrderStatusReturnRequested},
	enums.OrderStatusReturnRequested: {enums.OrderStatusReturned, enums.OrderStatusDelivered},
	enums.OrderStatusReturned:        {enums.OrderStatusRefunded},
	enums.OrderStatusCancelled:       {enums.OrderStatusRefunded},
}

// CanTransition reports whether an administrator may move an order from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from the given status.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	out := make([]enums.OrderStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// StatusOption is a status as offered to the back office.
type StatusOption struct {
	Label string            `json:"label"`
	Value enums.OrderStatus `json:"value"`
}

// Statuses returns every status in workflow order.
func Statuses() []StatusOption {
	all := enums.OrderStatuses()
	out := make([]StatusOption, 0, len(all))
	for _, status := range all {
		out = append(out, StatusOption{Label: status.Label(), Value: status})
	}
	return out
}
