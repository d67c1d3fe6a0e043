package services

import (
	"context"
	"fmt"
	"log/slog"

	"contabile/internal/core"
	"contabile/internal/storage"
)

// BudgetService manages the monthly spending plans. One budget exists per
// (user, month, year); writing to an existing key updates it in place.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// Upsert creates or replaces the budget for (ownerID, month, year).
// The write is idempotent by key; the storage layer does it atomically.
func (s *BudgetService) Upsert(ctx context.Context, ownerID int64, month, year int, total core.Money, categories core.CategoryBudgets) (core.Budget, error) {
	b := core.Budget{
		UserID:          ownerID,
		Month:           month,
		Year:            year,
		TotalBudget:     total,
		CategoryBudgets: categories,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.storage.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget upserted",
		"budget_id", saved.ID,
		"user_id", ownerID,
		"month", month,
		"year", year,
		"amount_cents", total.Cents)
	return saved, nil
}

// Get returns the budget for (ownerID, month, year), core.ErrNotFound
// when absent.
func (s *BudgetService) Get(ctx context.Context, ownerID int64, month, year int) (core.Budget, error) {
	if month < 1 || month > 12 {
		return core.Budget{}, core.ErrInvalidMonth
	}
	return s.storage.GetBudget(ctx, ownerID, month, year)
}

// ListOwn returns the caller's budgets ordered by year then month,
// both descending.
func (s *BudgetService) ListOwn(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	return s.storage.ListBudgetsByUser(ctx, ownerID)
}

// Delete removes a budget owned by callerID.
func (s *BudgetService) Delete(ctx context.Context, budgetID, callerID int64) error {
	b, err := s.storage.GetBudgetByID(ctx, budgetID)
	if err != nil {
		return err
	}
	if b.UserID != callerID {
		return core.ErrForbidden
	}
	return s.storage.DeleteBudget(ctx, budgetID)
}
