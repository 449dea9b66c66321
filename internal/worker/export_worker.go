package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/export"
	"gastos/internal/log"
)

// Ledger is the slice of the repository the worker needs.
type Ledger interface {
	GetExpenseAny(ctx context.Context, id int64) (*core.Expense, error)
	GetUserByID(ctx context.Context, id int64) (*core.User, error)
	GetUnexportedExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkExported(ctx context.Context, id int64) error
}

// ExportWorker pushes ledger entries to an export sink, both on demand
// when events arrive and periodically as a catch-up sweep.
type ExportWorker struct {
	ledger    Ledger
	sink      export.RowAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(ledger Ledger, sink export.RowAppender, batchSize int, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		ledger:    ledger,
		sink:      sink,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent exports the expense named by one queue message. Deletions
// carry no row to export and rows gone by the time the message arrives
// are treated the same way.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if msg.Action == amqp.ActionDeleted {
		w.logger.DebugContext(ctx, "skipping deleted expense", log.FieldExpenseID, msg.ExpenseID)
		return nil
	}

	expense, err := w.ledger.GetExpenseAny(ctx, msg.ExpenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "expense vanished before export", log.FieldExpenseID, msg.ExpenseID)
			return nil
		}
		return fmt.Errorf("fetch expense %d: %w", msg.ExpenseID, err)
	}

	return w.exportOne(ctx, expense)
}

// ProcessPending exports one batch of rows the event path missed, for
// example while AMQP was down. Returns how many rows were exported.
func (w *ExportWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.ledger.GetUnexportedExpenses(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	exported := 0
	for i := range pending {
		if err := w.exportOne(ctx, &pending[i]); err != nil {
			return exported, err
		}
		exported++
	}

	if exported > 0 {
		w.logger.InfoContext(ctx, "exported pending expenses", "count", exported)
	}
	return exported, nil
}

// Run sweeps pending rows on the given interval until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "pending export sweep failed", log.FieldError, err)
			}
		}
	}
}

func (w *ExportWorker) exportOne(ctx context.Context, e *core.Expense) error {
	owner, err := w.ledger.GetUserByID(ctx, e.UserID)
	if err != nil {
		return fmt.Errorf("fetch owner of expense %d: %w", e.ID, err)
	}

	row := export.Row{
		ExpenseID: e.ID,
		UserEmail: owner.Email,
		Title:     e.Title,
		Category:  e.Category.Label(),
		Amount:    e.Amount.String(),
		Date:      e.Date.String(),
	}
	if err := w.sink.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append row for expense %d: %w", e.ID, err)
	}

	if err := w.ledger.MarkExported(ctx, e.ID); err != nil {
		return fmt.Errorf("mark expense %d exported: %w", e.ID, err)
	}

	w.logger.DebugContext(ctx, "exported expense",
		log.FieldExpenseID, e.ID,
		log.FieldUserID, e.UserID)
	return nil
}
