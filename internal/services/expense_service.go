package services

import (
	"context"
	"fmt"
	"log/slog"

	"contabile/internal/amqp"
	"contabile/internal/auth"
	"contabile/internal/core"
	"contabile/internal/storage"
)

// ExpenseInput carries the owner-settable expense fields. Update uses
// pointers so omitted fields keep their stored value.
type ExpenseInput struct {
	Category    string
	Amount      core.Money
	Description string
	Date        core.Date
}

// ExpenseUpdate is a partial update of the owner-mutable fields. Status is
// deliberately absent: the owner's path can never touch it.
type ExpenseUpdate struct {
	Category    *string
	Amount      *core.Money
	Description *string
	Date        *core.Date
}

// ExpenseService orchestrates the expense lifecycle across storage and the
// AMQP change-notification stream.
type ExpenseService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

func NewExpenseService(storage *storage.SQLiteRepository, events *amqp.Client) *ExpenseService {
	return &ExpenseService{storage: storage, events: events}
}

// Create stores a new expense owned by ownerID. The status is forced to
// pending regardless of anything the client sent, and the date defaults
// to today when omitted.
func (s *ExpenseService) Create(ctx context.Context, ownerID int64, in ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		UserID:      ownerID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		Date:        in.Date,
		Status:      core.StatusPending,
	}
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, created.ID, ownerID, string(created.Status)))

	slog.InfoContext(ctx, "Expense created",
		"expense_id", created.ID,
		"user_id", ownerID,
		"category", created.Category,
		"amount_cents", created.Amount.Cents)
	return created, nil
}

// ListOwn returns the caller's expenses, newest first.
func (s *ExpenseService) ListOwn(ctx context.Context, ownerID int64) ([]core.Expense, error) {
	return s.storage.ListExpensesByUser(ctx, ownerID, core.Date{}, core.Date{})
}

// ListAll returns every expense across users with the owner joined in.
// Callers must have checked the admin role already.
func (s *ExpenseService) ListAll(ctx context.Context) ([]core.ExpenseWithOwner, error) {
	return s.storage.ListAllExpenses(ctx)
}

// Update applies the supplied fields to an expense owned by callerID.
// A non-owner caller fails with core.ErrForbidden and changes nothing.
func (s *ExpenseService) Update(ctx context.Context, expenseID, callerID int64, in ExpenseUpdate) (core.Expense, error) {
	e, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}
	if e.UserID != callerID {
		return core.Expense{}, core.ErrForbidden
	}

	if in.Category != nil {
		e.Category = *in.Category
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.storage.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseUpdated, updated.ID, updated.UserID, string(updated.Status)))
	return updated, nil
}

// Delete removes an expense owned by callerID.
func (s *ExpenseService) Delete(ctx context.Context, expenseID, callerID int64) error {
	e, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if e.UserID != callerID {
		return core.ErrForbidden
	}

	if err := s.storage.DeleteExpense(ctx, expenseID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, expenseID, callerID, ""))

	slog.InfoContext(ctx, "Expense deleted", "expense_id", expenseID, "user_id", callerID)
	return nil
}

// SetStatus transitions an expense between the three defined states. Only
// the actor's role gates the operation; the transition itself is free, so
// an admin may move an expense between any two states any number of times.
func (s *ExpenseService) SetStatus(ctx context.Context, expenseID int64, caller auth.Identity, status core.Status) (core.Expense, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return core.Expense{}, err
	}
	if _, err := core.ParseStatus(string(status)); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.storage.UpdateExpenseStatus(ctx, expenseID, status)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseStatusChanged, updated.ID, updated.UserID, string(status)))

	slog.InfoContext(ctx, "Expense status changed",
		"expense_id", updated.ID,
		"status", status,
		"admin_id", caller.UserID)
	return updated, nil
}

// publish sends a change notification. Publishing is best effort: with no
// broker configured or a failed publish the request still succeeds, the
// polling clients pick the change up on their next fetch.
func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish expense event",
			"error", err,
			"type", event.Type,
			"expense_id", event.ExpenseID)
	}
}

// Close closes storage and the event stream.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
