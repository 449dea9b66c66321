package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrMissingEmail       = errors.New("email is required")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrMissingToken       = errors.New("token is required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrInvalidAmount      = errors.New("invalid amount")
)

type (
	// Date is a calendar day without a time component.
	Date struct {
		time.Time
	}

	// Money is a fixed-point amount in cents.
	Money struct {
		Cents int64
	}

	// User is an account identified by email. The password is only ever
	// held as a bcrypt hash.
	User struct {
		ID           int64
		Email        string
		PasswordHash string
		FirstName    string
		LastName     string
		IsActive     bool
		IsStaff      bool
		IsSuperuser  bool
		DateJoined   time.Time
		UpdatedAt    time.Time
	}

	// Expense is a ledger entry owned by exactly one user.
	Expense struct {
		ID          int64
		UserID      int64
		Title       string
		Amount      Money
		Category    Category
		Description string
		Date        Date
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// FullName returns first and last name joined, trimmed.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return Date{Time: d.Time.AddDate(0, 0, days)}
}

// NormalizeEmail lower-cases the domain portion of an email address,
// leaving the local part untouched. Returns ErrMissingEmail for an
// empty address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingEmail
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email, nil
	}
	return email[:at+1] + strings.ToLower(email[at+1:]), nil
}
