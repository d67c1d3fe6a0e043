package sheets

import (
	"context"
	"time"

	"contabile/internal/core"
)

// AuditRow is one line of the expense audit trail kept outside the
// primary store.
type AuditRow struct {
	Timestamp   time.Time
	Event       string
	ExpenseID   int64
	UserID      int64
	Category    string
	Amount      core.Money
	Date        core.Date
	Status      string
	Description string
}

// AuditWriter is the outbound port for appending audit rows.
type AuditWriter interface {
	AppendAuditRow(ctx context.Context, row AuditRow) error
}
