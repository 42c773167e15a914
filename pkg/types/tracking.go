package types

import "time"

// Tracking is the courier information attached to a shipped order.
type Tracking struct {
	Courier     string    `json:"courier"`
	TrackingID  string    `json:"tracking_id"`
	TrackingURL string    `json:"tracking_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
