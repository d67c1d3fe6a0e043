package core

import (
	"errors"
	"testing"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "Mario", "mario@example.com", "secret1", nil},
		{"empty name", "  ", "mario@example.com", "secret1", ErrEmptyName},
		{"bad email", "Mario", "not-an-email", "secret1", ErrInvalidEmail},
		{"short password", "Mario", "mario@example.com", "12345", ErrShortPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.userName, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRegistration() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(""); err != nil || r != RoleUser {
		t.Errorf("empty role should default to user, got %q, %v", r, err)
	}
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Errorf("ParseRole(admin) = %q, %v", r, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseRole(root) error = %v, want ErrInvalidRole", err)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q): %v", s, err)
		}
	}
	if _, err := ParseStatus("archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ParseStatus(archived) error = %v, want ErrInvalidStatus", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Category:    "Food",
		Amount:      Money{Cents: 2550},
		Description: "lunch",
		Date:        NewDate(2024, 3, 10),
		Status:      StatusPending,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	e := valid
	e.Category = " "
	if err := e.Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("blank category error = %v", err)
	}

	e = valid
	e.Amount = Money{Cents: 0}
	if err := e.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount error = %v", err)
	}

	e = valid
	e.Date = Date{}
	if err := e.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("zero date error = %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		Month:       3,
		Year:        2024,
		TotalBudget: Money{Cents: 50000},
		CategoryBudgets: CategoryBudgets{
			Food: Money{Cents: 10000},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	b := valid
	b.Month = 13
	if err := b.Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("month 13 error = %v", err)
	}

	b = valid
	b.CategoryBudgets.Other = Money{Cents: -1}
	if err := b.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative category budget error = %v", err)
	}

	// Zero allotments are legal; only negatives are rejected.
	b = valid
	b.CategoryBudgets = CategoryBudgets{}
	if err := b.Validate(); err != nil {
		t.Errorf("zero-filled category budgets rejected: %v", err)
	}
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		year, month int
		wantLastDay int
	}{
		{2024, 3, 31},
		{2024, 2, 29}, // leap year
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tt := range tests {
		start, end := MonthWindow(tt.year, tt.month)
		if start.Day() != 1 || int(start.Month()) != tt.month || start.Year() != tt.year {
			t.Errorf("MonthWindow(%d, %d) start = %s", tt.year, tt.month, start)
		}
		if end.Day() != tt.wantLastDay {
			t.Errorf("MonthWindow(%d, %d) end day = %d, want %d", tt.year, tt.month, end.Day(), tt.wantLastDay)
		}
	}
}

func TestDateIn(t *testing.T) {
	d := NewDate(2024, 3, 15)
	start, end := NewDate(2024, 3, 1), NewDate(2024, 3, 31)
	if !d.In(start, end) {
		t.Error("date inside window reported out")
	}
	if !start.In(start, end) || !end.In(start, end) {
		t.Error("window boundaries must be inclusive")
	}
	if NewDate(2024, 4, 1).In(start, end) {
		t.Error("date past the end reported in")
	}
	if !d.In(Date{}, Date{}) {
		t.Error("open window should accept any date")
	}
}
