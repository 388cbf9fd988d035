// internal/domain/models.go
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

var (
	ErrInvalidType          = errors.New("type must be INCOME or EXPENSE")
	ErrInvalidAmount        = errors.New("amount must be at least 0.01")
	ErrBlankName            = errors.New("name must not be blank")
	ErrMonthNotFirstDay     = errors.New("month must be the first day of the month")
	ErrCategoryTypeMismatch = errors.New("category type must match transaction type")
)

// MinAmount is the smallest amount accepted for transactions and budgets.
var MinAmount = decimal.New(1, -2) // 0.01

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CreatedAt    time.Time `json:"-"`
}

type Category struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`

	// TransactionCount is filled on reads, not stored.
	TransactionCount int64 `json:"transaction_count"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrBlankName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	CategoryID  *int64          `json:"category"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"-"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`

	// CategoryName is joined in on reads; nil when the transaction
	// has no category or the category was deleted.
	CategoryName *string `json:"category_name"`
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.LessThan(MinAmount) {
		return ErrInvalidAmount
	}
	return nil
}

type Budget struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	Month     time.Time       `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}

func (b Budget) Validate() error {
	if b.Month.Day() != 1 {
		return ErrMonthNotFirstDay
	}
	if b.Amount.LessThan(MinAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// MonthStart truncates a time to the first day of its calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DefaultCategory is one of the categories provisioned at registration.
type DefaultCategory struct {
	Name string
	Type TransactionType
}

var DefaultCategories = []DefaultCategory{
	{Name: "Salary", Type: Income},
	{Name: "Freelance", Type: Income},
	{Name: "Investment", Type: Income},
	{Name: "Other Income", Type: Income},
	{Name: "Groceries", Type: Expense},
	{Name: "Rent", Type: Expense},
	{Name: "Utilities", Type: Expense},
	{Name: "Transportation", Type: Expense},
	{Name: "Entertainment", Type: Expense},
	{Name: "Healthcare", Type: Expense},
	{Name: "Shopping", Type: Expense},
	{Name: "Other Expense", Type: Expense},
}
