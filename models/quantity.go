package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a non-negative figure (shares, applications, lots) decoded
// leniently from backend JSON. Numbers, numeric strings and null are accepted;
// anything else, including negative values, decodes to zero.
type Quantity struct {
	decimal.Decimal
}

// Amount is a signed rupee value (price, GMP, listing gain) decoded leniently.
// Unparseable input decodes to zero.
type Amount struct {
	decimal.Decimal
}

// NewQuantity builds a Quantity, clamping negatives to zero
func NewQuantity(v float64) Quantity {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return Quantity{Decimal: decimal.Zero}
	}
	return Quantity{Decimal: d}
}

// NewAmount builds an Amount from a float
func NewAmount(v float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(v)}
}

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	d := parseLenientDecimal(data)
	if d.IsNegative() {
		d = decimal.Zero
	}
	q.Decimal = d
	return nil
}

// MarshalJSON writes the value as a bare JSON number
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.Decimal.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Decimal = parseLenientDecimal(data)
	return nil
}

// MarshalJSON writes the value as a bare JSON number
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func parseLenientDecimal(data []byte) decimal.Decimal {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
