package types

import "strings"

// AddressSnapshot is the shipping address frozen onto an order.
type AddressSnapshot struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

// Lines renders the snapshot as printable address lines, skipping blanks.
func (a AddressSnapshot) Lines() []string {
	out := []string{}
	for _, line := range []string{
		a.Name,
		a.AddressLine1,
		a.AddressLine2,
		strings.TrimSpace(strings.Join([]string{a.City, a.State}, ", ") + " " + a.Pincode),
		a.Phone,
	} {
		if trimmed := strings.Trim(strings.TrimSpace(line), ","); strings.TrimSpace(trimmed) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}
