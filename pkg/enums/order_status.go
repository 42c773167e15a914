package enums

import "fmt"

// OrderStatus is the fulfillment workflow stage an administrator marks an order with.
type OrderStatus string

const (
	OrderStatusPlaced          OrderStatus = "order_placed"
	OrderStatusPacking         OrderStatus = "packing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusOutForDelivery  OrderStatus = "out_for_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusReturnRequested OrderStatus = "return_requested"
	OrderStatusReturned        OrderStatus = "returned"
	OrderStatusRefunded        OrderStatus = "refunded"
)

// validOrderStatuses is ordered the way the workflow is presented.
var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReturned,
	OrderStatusRefunded,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPlaced:          "Order Placed",
	OrderStatusPacking:         "Packing",
	OrderStatusShipped:         "Shipped",
	OrderStatusOutForDelivery:  "Out for delivery",
	OrderStatusDelivered:       "Delivered",
	OrderStatusCancelled:       "Cancelled",
	OrderStatusReturnRequested: "Return Requested",
	OrderStatusReturned:        "Returned",
	OrderStatusRefunded:        "Refunded",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// Label returns the customer-facing name of the status.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// OrderStatuses returns every status in workflow order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus. Display labels are accepted too.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value || orderStatusLabels[candidate] == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
