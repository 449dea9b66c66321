// Package core holds the domain model: users, expenses, categories,
// money parsing, and the validation rules enforced before persistence.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Amount bounds: at most 8 integer digits plus 2 decimals, never below
// one cent. Amounts above LargeAmountCents require a description.
const (
	MinAmountCents   int64 = 1
	MaxAmountCents   int64 = 99_999_999_99
	LargeAmountCents int64 = 1_000_000 * 100
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot and comma separators are
// accepted. Returns ErrInvalidAmount for malformed input, non-positive
// values, or amounts beyond the 8-integer-digit bound.
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := ParseCents(s)
	if err != nil {
		return 0, err
	}
	if cents < MinAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseCents is ParseDecimalToCents without the one-cent floor. Amount
// filter bounds use it so that zero is a valid bound.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > MaxAmountCents/100 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// String formats the amount as a plain 2-decimal string, e.g. "1234.56".
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// Validate checks the amount bounds.
func (m Money) Validate() error {
	if m.Cents < MinAmountCents || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}
