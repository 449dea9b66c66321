package core

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// FieldErrors maps a field name to a validation message. It satisfies the
// error interface so validation failures travel through normal error
// returns and surface as field-keyed 400 payloads.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}

// Add records a message for a field, keeping the first one on collisions.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Err returns fe as an error, or nil when no field failed.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

const maxTitleLength = 200

// Validate runs the expense validation sequence against the given day.
// Each check is pure; the first failure per field wins.
func (e Expense) Validate(today Date) error {
	fe := FieldErrors{}
	if strings.TrimSpace(e.Title) == "" {
		fe.Add("title", "title is required")
	} else if len(e.Title) > maxTitleLength {
		fe.Add("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	if err := e.Amount.Validate(); err != nil {
		fe.Add("amount", "amount must be between 0.01 and 99999999.99")
	}
	if !e.Category.Valid() {
		fe.Add("category", fmt.Sprintf("%q is not a valid category", string(e.Category)))
	}
	if e.Date.IsZero() {
		fe.Add("date", "date is required")
	} else if e.Date.After(today) {
		fe.Add("date", "expense date cannot be in the future")
	}
	if e.Amount.Cents > LargeAmountCents && strings.TrimSpace(e.Description) == "" {
		fe.Add("description", "expenses above 1,000,000 require a description")
	}
	return fe.Err()
}

const minPasswordLength = 8

// ValidatePassword enforces minimal password strength: at least eight
// characters and not entirely numeric.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return FieldErrors{"password": fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return FieldErrors{"password": "password cannot be entirely numeric"}
	}
	return nil
}
