package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-entered amount. Both dot (12.34) and comma
// (12,34) decimal separators are accepted; a sign is kept so callers can
// decide how to coerce it.
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("-42.5")  -> -42.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is required", Err: ErrInvalidAmount}
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number", Err: ErrInvalidAmount}
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, the way the dashboard
// shows money.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
