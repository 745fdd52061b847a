package core

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// ParseDecimal parses a decimal string such as "0.001".
func ParseDecimal(s string) (apd.Decimal, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return apd.Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// MustDecimal is ParseDecimal for constants; it panics on malformed input.
func MustDecimal(s string) apd.Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalText renders d in plain notation, never exponent form.
func DecimalText(d *apd.Decimal) string {
	return d.Text('f')
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d *apd.Decimal) bool {
	return d.Sign() > 0
}
