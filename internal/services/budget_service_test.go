package services

import (
	"context"
	"testing"

	"contabile/internal/core"
	"contabile/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budgetFixture(t *testing.T) (*BudgetService, core.User, core.User) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	owner, err := repo.CreateUser(ctx, "Mario", "mario@example.com", "hash", core.RoleUser)
	require.NoError(t, err)
	other, err := repo.CreateUser(ctx, "Anna", "anna@example.com", "hash", core.RoleUser)
	require.NoError(t, err)

	return NewBudgetService(repo), owner, other
}

func TestBudgetUpsertTwiceKeepsOneRecord(t *testing.T) {
	svc, owner, _ := budgetFixture(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, owner.ID, 3, 2024, core.Money{Cents: 50000}, core.CategoryBudgets{
		Food: core.Money{Cents: 10000},
	})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, owner.ID, 3, 2024, core.Money{Cents: 70000}, core.CategoryBudgets{
		Food:      core.Money{Cents: 15000},
		Transport: core.Money{Cents: 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(70000), second.TotalBudget.Cents)

	budgets, err := svc.ListOwn(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 1, "upsert must not duplicate the (user, month, year) key")
	assert.Equal(t, int64(15000), budgets[0].CategoryBudgets.Food.Cents)
}

func TestBudgetUpsertValidation(t *testing.T) {
	svc, owner, _ := budgetFixture(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, owner.ID, 0, 2024, core.Money{Cents: 100}, core.CategoryBudgets{})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)

	_, err = svc.Upsert(ctx, owner.ID, 3, 2024, core.Money{Cents: -1}, core.CategoryBudgets{})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestBudgetGetMissing(t *testing.T) {
	svc, owner, _ := budgetFixture(t)

	_, err := svc.Get(context.Background(), owner.ID, 6, 2024)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(context.Background(), owner.ID, 13, 2024)
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestBudgetDeleteOwnership(t *testing.T) {
	svc, owner, other := budgetFixture(t)
	ctx := context.Background()

	b, err := svc.Upsert(ctx, owner.ID, 3, 2024, core.Money{Cents: 100}, core.CategoryBudgets{})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, b.ID, other.ID), core.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, b.ID, owner.ID))
	assert.ErrorIs(t, svc.Delete(ctx, b.ID, owner.ID), core.ErrNotFound)
}

func TestBudgetsScopedPerUser(t *testing.T) {
	svc, owner, other := budgetFixture(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, owner.ID, 3, 2024, core.Money{Cents: 100}, core.CategoryBudgets{})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, other.ID, 3, 2024, core.Money{Cents: 200}, core.CategoryBudgets{})
	require.NoError(t, err)

	mine, err := svc.ListOwn(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(100), mine[0].TotalBudget.Cents)
}
