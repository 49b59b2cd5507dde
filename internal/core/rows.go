package core

// RowContext is passed to row middleware alongside each record.
type RowContext struct {
	// Index is the zero-based position of the row among data rows.
	Index int
	// Headers lets field-scoped middleware resolve names on positional rows.
	Headers []string
}

// RowMiddleware transforms records on the read and write passes.
type RowMiddleware interface {
	ApplyRead(rec Record, ctx RowContext) (Record, error)
	ApplyWrite(rec Record, ctx RowContext) (Record, error)
}
