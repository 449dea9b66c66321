package export

import "context"

// Row is one exported ledger entry, already formatted for the sink.
type Row struct {
	ExpenseID int64
	UserEmail string
	Title     string
	Category  string
	Amount    string
	Date      string
}

// RowAppender is the outbound port for export sinks.
type RowAppender interface {
	AppendRow(ctx context.Context, row Row) error
}
