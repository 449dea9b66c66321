package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gastos/internal/core"
)

const expenseColumns = "id, user_id, title, amount_cents, category, description, expense_date, created_at, updated_at"

// CreateExpense inserts a new expense and fills in its ID and timestamps.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e *core.Expense) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (user_id, title, amount_cents, category, description, expense_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Title, e.Amount.Cents, string(e.Category), e.Description,
		e.Date.String(), encodeTime(now), encodeTime(now))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create expense id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetExpense returns the expense only if it belongs to the given user.
// Anything else, including another user's expense, is core.ErrNotFound.
func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	return scanExpense(row.Scan)
}

// GetExpenseAny returns an expense regardless of owner. Reserved for the
// export pipeline, which runs without a request principal.
func (r *SQLiteRepository) GetExpenseAny(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	return scanExpense(row.Scan)
}

// UpdateExpense rewrites all mutable fields of an owned expense and
// queues it for re-export.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE expenses
SET title = ?, amount_cents = ?, category = ?, description = ?, expense_date = ?, exported = 0, updated_at = ?
WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount.Cents, string(e.Category), e.Description, e.Date.String(),
		encodeTime(now), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	e.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ListExpenses returns the filtered page of a user's expenses.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, f ExpenseFilter) ([]core.Expense, error) {
	where, args := f.whereClause(userID)

	query := "SELECT " + expenseColumns + " FROM expenses" + where + f.orderClause()
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses rows: %w", err)
	}
	return out, nil
}

// CountExpenses returns how many expenses match the filter, ignoring
// pagination.
func (r *SQLiteRepository) CountExpenses(ctx context.Context, userID int64, f ExpenseFilter) (int64, error) {
	where, args := f.whereClause(userID)

	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// ExpenseStats aggregates the filtered set: row count, total cents and
// per-category totals for categories that have at least one row.
func (r *SQLiteRepository) ExpenseStats(ctx context.Context, userID int64, f ExpenseFilter) (int64, int64, []core.CategoryTotal, error) {
	where, args := f.whereClause(userID)

	var count, total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses"+where, args...).
		Scan(&count, &total)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("expense totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT category, SUM(amount_cents) FROM expenses"+where+" GROUP BY category", args...)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("expense category totals: %w", err)
	}
	defer rows.Close()

	var byCategory []core.CategoryTotal
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return 0, 0, nil, fmt.Errorf("scan category total: %w", err)
		}
		byCategory = append(byCategory, core.CategoryTotal{
			Category: core.Category(category),
			Total:    core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return 0, 0, nil, fmt.Errorf("expense category rows: %w", err)
	}

	return count, total, byCategory, nil
}

// GetUnexportedExpenses returns expenses waiting for export, oldest first.
func (r *SQLiteRepository) GetUnexportedExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE exported = 0 ORDER BY id ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("get unexported expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unexported rows: %w", err)
	}
	return out, nil
}

// MarkExported flags an expense as delivered to the export sink.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET exported = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return requireRow(res)
}

func scanExpense(scan func(...any) error) (*core.Expense, error) {
	var e core.Expense
	var category, date, created, updated string

	err := scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &category,
		&e.Description, &date, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}

	e.Category = core.Category(category)
	if e.Date, err = core.ParseDate(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = decodeTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = decodeTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}
