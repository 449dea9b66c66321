package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/export/memory"
	"gastos/internal/log"
	"gastos/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func setup(t *testing.T) (*storage.SQLiteRepository, *memory.Appender, *ExportWorker) {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sink := memory.New()
	return repo, sink, NewExportWorker(repo, sink, 10, testLogger())
}

func seedExpense(t *testing.T, repo *storage.SQLiteRepository) *core.Expense {
	t.Helper()
	ctx := context.Background()

	u := &core.User{Email: "ana@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, repo.CreateUser(ctx, u))

	date, err := core.ParseDate("2026-03-01")
	require.NoError(t, err)

	e := &core.Expense{
		UserID:   u.ID,
		Title:    "Pan",
		Amount:   core.Money{Cents: 250},
		Category: core.Groceries,
		Date:     date,
	}
	require.NoError(t, repo.CreateExpense(ctx, e))
	return e
}

func TestHandleEventExportsRow(t *testing.T) {
	repo, sink, w := setup(t)
	ctx := context.Background()
	e := seedExpense(t, repo)

	msg := amqp.NewExpenseEventMessage(e.ID, e.UserID, amqp.ActionCreated)
	require.NoError(t, w.HandleEvent(ctx, msg))

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, e.ID, rows[0].ExpenseID)
	assert.Equal(t, "ana@example.com", rows[0].UserEmail)
	assert.Equal(t, "2.50", rows[0].Amount)
	assert.Equal(t, "Comestibles", rows[0].Category)
	assert.Equal(t, "2026-03-01", rows[0].Date)

	// The row is no longer pending.
	pending, err := repo.GetUnexportedExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleEventSkipsDeleted(t *testing.T) {
	_, sink, w := setup(t)

	msg := amqp.NewExpenseEventMessage(99, 1, amqp.ActionDeleted)
	require.NoError(t, w.HandleEvent(context.Background(), msg))
	assert.Empty(t, sink.Rows())
}

func TestHandleEventSkipsVanishedExpense(t *testing.T) {
	_, sink, w := setup(t)

	msg := amqp.NewExpenseEventMessage(404, 1, amqp.ActionCreated)
	require.NoError(t, w.HandleEvent(context.Background(), msg))
	assert.Empty(t, sink.Rows())
}

func TestHandleEventSinkFailureSurfaces(t *testing.T) {
	repo, sink, w := setup(t)
	ctx := context.Background()
	e := seedExpense(t, repo)

	sink.FailWith = errors.New("quota exhausted")
	msg := amqp.NewExpenseEventMessage(e.ID, e.UserID, amqp.ActionCreated)
	assert.Error(t, w.HandleEvent(ctx, msg))

	// Still pending for the catch-up sweep.
	pending, err := repo.GetUnexportedExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestProcessPending(t *testing.T) {
	repo, sink, w := setup(t)
	ctx := context.Background()
	seedExpense(t, repo)

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, sink.Rows(), 1)

	// Second sweep finds nothing.
	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	_, _, w := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
