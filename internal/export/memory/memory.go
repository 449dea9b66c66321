// Package memory holds an in-process export sink used in tests and as a
// stand-in when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"gastos/internal/export"
)

type Appender struct {
	mu   sync.Mutex
	rows []export.Row

	// FailWith, when set, is returned by AppendRow without recording.
	FailWith error
}

var _ export.RowAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendRow(ctx context.Context, row export.Row) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.FailWith != nil {
		return a.FailWith
	}
	a.rows = append(a.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []export.Row {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]export.Row(nil), a.rows...)
}
