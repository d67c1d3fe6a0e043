package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Fixed budget category keys. Expense categories are free-form; budgets
// always carry exactly this set.
var BudgetCategories = []string{
	"Food", "Transport", "Entertainment", "Bills", "Healthcare", "Shopping", "Other",
}

type (
	Role   string
	Status string

	User struct {
		ID           int64     `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Role         Role      `json:"role"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"userId"`
		Category    string    `json:"category"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Date        Date      `json:"date"`
		Status      Status    `json:"status"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// ExpenseWithOwner is an expense joined with the owning user's
	// name and email, used by the admin listing.
	ExpenseWithOwner struct {
		Expense
		OwnerName  string `json:"ownerName"`
		OwnerEmail string `json:"ownerEmail"`
	}

	// CategoryBudgets holds the per-category allotments of a monthly
	// budget. The key set is closed; missing keys default to zero.
	CategoryBudgets struct {
		Food          Money `json:"Food"`
		Transport     Money `json:"Transport"`
		Entertainment Money `json:"Entertainment"`
		Bills         Money `json:"Bills"`
		Healthcare    Money `json:"Healthcare"`
		Shopping      Money `json:"Shopping"`
		Other         Money `json:"Other"`
	}

	Budget struct {
		ID              int64           `json:"id"`
		UserID          int64           `json:"userId"`
		Month           int             `json:"month"` // 1-12
		Year            int             `json:"year"`
		TotalBudget     Money           `json:"totalBudget"`
		CategoryBudgets CategoryBudgets `json:"categoryBudgets"`
		CreatedAt       time.Time       `json:"createdAt"`
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmptyName        = errors.New("name is required")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrShortPassword    = errors.New("password must be at least 6 characters")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrLongDescription  = errors.New("description too long (max 500 characters)")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
)

// IsValidationError reports whether err is one of the input validation
// sentinels. The HTTP layer maps these to a 400 response.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrEmptyName, ErrInvalidEmail, ErrShortPassword, ErrInvalidRole,
		ErrInvalidStatus, ErrInvalidAmount, ErrEmptyCategory,
		ErrLongDescription, ErrInvalidMonth, ErrInvalidYear, ErrInvalidDate,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// ParseRole validates a role string, defaulting empty input to RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

// ParseStatus validates a status string against the three defined states.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// ValidateRegistration checks the register input format rules: non-empty
// name, a parseable email address, and a password of at least 6 characters.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < 6 {
		return ErrShortPassword
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Description) > 500 {
		return ErrLongDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	if b.TotalBudget.Cents < 0 {
		return ErrInvalidAmount
	}
	for _, m := range []Money{
		b.CategoryBudgets.Food, b.CategoryBudgets.Transport,
		b.CategoryBudgets.Entertainment, b.CategoryBudgets.Bills,
		b.CategoryBudgets.Healthcare, b.CategoryBudgets.Shopping,
		b.CategoryBudgets.Other,
	} {
		if m.Cents < 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Get returns the allotment for one of the fixed category keys. Unknown
// names fall through to Other, matching how free-form expense categories
// are bucketed against a budget.
func (cb CategoryBudgets) Get(category string) Money {
	switch category {
	case "Food":
		return cb.Food
	case "Transport":
		return cb.Transport
	case "Entertainment":
		return cb.Entertainment
	case "Bills":
		return cb.Bills
	case "Healthcare":
		return cb.Healthcare
	case "Shopping":
		return cb.Shopping
	default:
		return cb.Other
	}
}
