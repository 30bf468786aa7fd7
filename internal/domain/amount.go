package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount normalization errors.
var (
	ErrAmountMissing     = errors.New("amount is required")
	ErrAmountInvalid     = errors.New("invalid transfer amount")
	ErrAmountNotPositive = errors.New("transfer amount must be greater than zero")
	ErrAmountSubCent     = errors.New("transfer amount has more than two decimal places")
)

// Amount carries a caller-supplied monetary value. Clients have historically
// sent amounts as both JSON numbers and strings; both forms are accepted and
// normalized to int64 minor units without losing sub-unit precision.
type Amount struct {
	raw string
}

// NewAmount builds an Amount from its textual decimal representation.
// Intended for tests and internal callers.
func NewAmount(s string) Amount {
	return Amount{raw: s}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	a.raw = strings.TrimSpace(s)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(a.raw)
}

// MinorUnits validates the amount and converts it to minor units. The value
// must parse as a finite decimal, be strictly positive, and carry at most two
// decimal places; cents are preserved exactly, never truncated.
func (a Amount) MinorUnits() (int64, error) {
	if a.raw == "" {
		return 0, ErrAmountMissing
	}
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return 0, ErrAmountInvalid
	}
	if !d.IsPositive() {
		return 0, ErrAmountNotPositive
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrAmountSubCent
	}
	if !minor.BigInt().IsInt64() {
		return 0, ErrAmountInvalid
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders minor units as a decimal string with two places,
// e.g. 4000 -> "40.00".
func FormatMinorUnits(minor int64) string {
	return decimal.NewFromInt(minor).Shift(-2).StringFixed(2)
}
