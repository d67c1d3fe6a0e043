package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contabile/internal/amqp"
	"contabile/internal/core"
	"contabile/internal/sheets"
	"contabile/internal/storage"
)

// AuditWorker consumes expense change events and appends them to the
// external audit trail.
type AuditWorker struct {
	storage *storage.SQLiteRepository
	audit   sheets.AuditWriter
}

func NewAuditWorker(storage *storage.SQLiteRepository, audit sheets.AuditWriter) *AuditWorker {
	return &AuditWorker{
		storage: storage,
		audit:   audit,
	}
}

// HandleExpenseEvent processes a single change event. For delete events
// the expense record is gone, so the row carries identifiers only; for
// every other event the current record is loaded from storage.
func (w *AuditWorker) HandleExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"type", event.Type,
		"expense_id", event.ExpenseID)

	row := sheets.AuditRow{
		Timestamp: event.Timestamp,
		Event:     event.Type,
		ExpenseID: event.ExpenseID,
		UserID:    event.UserID,
		Status:    event.Status,
	}

	if event.Type != amqp.EventExpenseDeleted {
		expense, err := w.storage.GetExpense(ctx, event.ExpenseID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				// Deleted between publish and consume. Record what the
				// event carries rather than failing the message.
				slog.WarnContext(ctx, "Expense gone before audit, recording event only",
					"expense_id", event.ExpenseID)
			} else {
				return fmt.Errorf("get expense from storage: %w", err)
			}
		} else {
			row.Category = expense.Category
			row.Amount = expense.Amount
			row.Date = expense.Date
			row.Status = string(expense.Status)
			row.Description = expense.Description
		}
	}

	if err := w.audit.AppendAuditRow(ctx, row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	slog.InfoContext(ctx, "Audit row recorded",
		"type", event.Type,
		"expense_id", event.ExpenseID)
	return nil
}
