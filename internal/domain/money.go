package domain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). It decodes the JSON number
// literal as a decimal so amounts never pass through float64.
type Money int64

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	text := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMoney parses a decimal literal such as "1280.50" or "1.5e2". Digits
// beyond the second fraction place are rounded half away from zero.
func ParseMoney(text string) (Money, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("parse money %q: %w", text, err)
	}
	cents := amount.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("parse money %q: out of range", text)
	}
	return Money(cents.IntPart()), nil
}
