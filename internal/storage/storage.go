// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound covers both nonexistent ids and rows owned by another
	// user: every query is scoped by user_id, so foreign rows are
	// indistinguishable from missing ones.
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	ErrDuplicate     = errors.New("already exists")
)

// TransactionFilter narrows a transaction listing. Nil/zero fields
// impose no constraint; supplied fields AND together.
type TransactionFilter struct {
	Type       *domain.TransactionType
	CategoryID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	Month      *int
	Year       *int

	// Search matches a case-insensitive substring of the description
	// or the category name.
	Search string

	// OrderBy overrides the default (date DESC, created_at DESC).
	// Accepted: date, amount, created_at, with a '-' prefix for DESC.
	OrderBy string
}

// IsZero reports whether the filter imposes no constraint at all.
func (f TransactionFilter) IsZero() bool {
	return f.Type == nil && f.CategoryID == nil &&
		f.DateFrom == nil && f.DateTo == nil &&
		f.AmountMin == nil && f.AmountMax == nil &&
		f.Month == nil && f.Year == nil &&
		f.Search == "" && f.OrderBy == ""
}

type UserStorage interface {
	// CreateUser inserts the user and provisions the default
	// categories in a single transaction.
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	// Search matches a case-insensitive substring of the name.
	Search string

	// OrderBy overrides the default name ordering. Accepted: name,
	// created_at, type, with a '-' prefix for DESC.
	OrderBy string
}

type CategoryStorage interface {
	ListCategories(ctx context.Context, userID int64, f CategoryFilter) ([]domain.Category, error)
	CreateCategory(ctx context.Context, cat *domain.Category) error
	GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error

	// CreateDefaultCategories is idempotent and returns the categories
	// actually created by this call.
	CreateDefaultCategories(ctx context.Context, userID int64) ([]domain.Category, error)
}

type TransactionStorage interface {
	ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error

	Summarize(ctx context.Context, userID int64, f TransactionFilter) (*domain.Summary, error)
	SumByCategory(ctx context.Context, userID int64, txType domain.TransactionType, f TransactionFilter) ([]domain.CategoryTotal, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
	MonthExpenseTotal(ctx context.Context, userID int64, month time.Time) (decimal.Decimal, error)
}

type BudgetStorage interface {
	ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error)
	CreateBudget(ctx context.Context, b *domain.Budget) error
	GetBudget(ctx context.Context, userID, id int64) (*domain.Budget, error)
	UpdateBudget(ctx context.Context, b *domain.Budget) error
	DeleteBudget(ctx context.Context, userID, id int64) error

	FindBudgetByMonth(ctx context.Context, userID int64, month time.Time) (*domain.Budget, error)

	// UpsertBudget creates or replaces the amount for (user, month)
	// and reports whether a new row was created.
	UpsertBudget(ctx context.Context, b *domain.Budget) (bool, error)
}
