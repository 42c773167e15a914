package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StockMap stores legacy per-variant stock keyed by "size-color" or "size".
type StockMap map[string]int

// Value implements driver.Valuer for jsonb columns.
func (m StockMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]int(m))
	if err != nil {
		return nil, fmt.Errorf("stock map: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for jsonb columns.
func (m *StockMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("stock map: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	out := map[string]int{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("stock map: %w", err)
	}
	*m = out
	return nil
}
