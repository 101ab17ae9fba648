package events

import "math/big"

// formatAmount renders a fixed-point stroop amount for event attributes,
// defaulting a nil pointer to the zero value rather than panicking.
func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
