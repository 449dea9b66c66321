package storage

import (
	"strings"

	"gastos/internal/core"
)

// ExpenseFilter narrows expense queries. Nil pointer fields are not
// applied. Bounds are inclusive.
type ExpenseFilter struct {
	Category  *core.Category
	StartDate *core.Date
	EndDate   *core.Date
	MinCents  *int64
	MaxCents  *int64
	Search    string

	// Ordering is one of date, amount, created_at, optionally prefixed
	// with "-" for descending. Empty means newest first.
	Ordering string

	Limit  int
	Offset int
}

var orderColumns = map[string]string{
	"date":       "expense_date",
	"amount":     "amount_cents",
	"created_at": "created_at",
}

// whereClause builds the WHERE fragment shared by list, count and stats
// queries. The returned clause always scopes to the owner.
func (f ExpenseFilter) whereClause(userID int64) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Category != nil {
		where = append(where, "category = ?")
		args = append(args, string(*f.Category))
	}
	if f.StartDate != nil {
		where = append(where, "expense_date >= ?")
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		where = append(where, "expense_date <= ?")
		args = append(args, f.EndDate.String())
	}
	if f.MinCents != nil {
		where = append(where, "amount_cents >= ?")
		args = append(args, *f.MinCents)
	}
	if f.MaxCents != nil {
		where = append(where, "amount_cents <= ?")
		args = append(args, *f.MaxCents)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	return " WHERE " + strings.Join(where, " AND "), args
}

// orderClause maps the requested ordering onto whitelisted columns.
// Unknown values fall back to the default so user input never reaches
// the SQL text.
func (f ExpenseFilter) orderClause() string {
	name := f.Ordering
	desc := false
	if strings.HasPrefix(name, "-") {
		desc = true
		name = name[1:]
	}

	col, ok := orderColumns[name]
	if !ok {
		return " ORDER BY expense_date DESC, created_at DESC, id DESC"
	}

	dir := "ASC"
	tiebreak := "id ASC"
	if desc {
		dir = "DESC"
		tiebreak = "id DESC"
	}
	return " ORDER BY " + col + " " + dir + ", " + tiebreak
}

// escapeLike neutralizes LIKE metacharacters so search terms match
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
