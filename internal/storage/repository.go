package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contabile/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists users, expenses and budgets. The budget
// (user, month, year) key is unique at the schema level and upserts are a
// single atomic statement, so two concurrent upserts for the same key can
// never create a duplicate.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. The readiness probe
// uses it.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, passwordHash string, role core.Role) (core.User, error) {
	u := core.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = core.Role(role)
	return u, nil
}

// --- expenses ---

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category, amount_cents, description, date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Category, e.Amount.Cents, e.Description, e.Date.String(), string(e.Status), e.CreatedAt,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount_cents, description, date, status, created_at
		 FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	return e, nil
}

// ListExpensesByUser returns a user's expenses ordered by date descending,
// optionally restricted to the inclusive [from, to] window. Zero dates
// leave the window open on that side.
func (r *SQLiteRepository) ListExpensesByUser(ctx context.Context, userID int64, from, to core.Date) ([]core.Expense, error) {
	query := `SELECT id, user_id, category, amount_cents, description, date, status, created_at
		 FROM expenses WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListAllExpenses returns every expense across all users with the owner's
// name and email joined in, ordered by date descending.
func (r *SQLiteRepository) ListAllExpenses(ctx context.Context) ([]core.ExpenseWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.category, e.amount_cents, e.description, e.date, e.status, e.created_at,
		        u.name, u.email
		 FROM expenses e
		 JOIN users u ON u.id = e.user_id
		 ORDER BY e.date DESC, e.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.ExpenseWithOwner
	for rows.Next() {
		var (
			e            core.Expense
			cents        int64
			date, status string
			owner        core.ExpenseWithOwner
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &cents, &e.Description, &date, &status, &e.CreatedAt,
			&owner.OwnerName, &owner.OwnerEmail); err != nil {
			return nil, fmt.Errorf("scan expense with owner: %w", err)
		}
		e.Amount = core.Money{Cents: cents}
		e.Status = core.Status(status)
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		owner.Expense = e
		expenses = append(expenses, owner)
	}
	return expenses, rows.Err()
}

// UpdateExpense overwrites the owner-mutable fields only. Status is
// deliberately outside this statement.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, amount_cents = ?, description = ?, date = ? WHERE id = ?`,
		e.Category, e.Amount.Cents, e.Description, e.Date.String(), e.ID,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return r.GetExpense(ctx, e.ID)
}

func (r *SQLiteRepository) UpdateExpenseStatus(ctx context.Context, id int64, status core.Status) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var (
		e            core.Expense
		cents        int64
		date, status string
	)
	if err := scan(&e.ID, &e.UserID, &e.Category, &cents, &e.Description, &date, &status, &e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.Money{Cents: cents}
	e.Status = core.Status(status)
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Date = parsed
	return e, nil
}

// --- budgets ---

// UpsertBudget inserts a budget or, when one already exists for the same
// (user, month, year), replaces its total and category allotments in place.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	categories, err := json.Marshal(b.CategoryBudgets)
	if err != nil {
		return core.Budget{}, fmt.Errorf("marshal category budgets: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, month, year, total_cents, category_budgets, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month, year) DO UPDATE SET
		   total_cents = excluded.total_cents,
		   category_budgets = excluded.category_budgets`,
		b.UserID, b.Month, b.Year, b.TotalBudget.Cents, string(categories), time.Now().UTC(),
	)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	return r.GetBudget(ctx, b.UserID, b.Month, b.Year)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, month, year int) (core.Budget, error) {
	return r.scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, year, total_cents, category_budgets, created_at
		 FROM budgets WHERE user_id = ? AND month = ? AND year = ?`, userID, month, year))
}

func (r *SQLiteRepository) GetBudgetByID(ctx context.Context, id int64) (core.Budget, error) {
	return r.scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, year, total_cents, category_budgets, created_at
		 FROM budgets WHERE id = ?`, id))
}

func (r *SQLiteRepository) ListBudgetsByUser(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, year, total_cents, category_budgets, created_at
		 FROM budgets WHERE user_id = ? ORDER BY year DESC, month DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := r.scanBudgetRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) scanBudget(row *sql.Row) (core.Budget, error) {
	b, err := r.scanBudgetRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	return b, err
}

func (r *SQLiteRepository) scanBudgetRow(scan func(dest ...any) error) (core.Budget, error) {
	var (
		b          core.Budget
		cents      int64
		categories string
	)
	if err := scan(&b.ID, &b.UserID, &b.Month, &b.Year, &cents, &categories, &b.CreatedAt); err != nil {
		return core.Budget{}, err
	}
	b.TotalBudget = core.Money{Cents: cents}
	if err := json.Unmarshal([]byte(categories), &b.CategoryBudgets); err != nil {
		return core.Budget{}, fmt.Errorf("unmarshal category budgets: %w", err)
	}
	return b, nil
}
