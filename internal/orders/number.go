package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber returns "ORD" followed by the last six digits of the unix millisecond
// clock and three random digits.
func NewOrderNumber(now time.Time) string {
	return formatOrderNumber(now, rand.IntN(1000))
}

func formatOrderNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("ORD%06d%03d", now.UnixMilli()%1_000_000, suffix%1000)
}
