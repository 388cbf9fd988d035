// internal/service/aggregation.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/cache"
	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/shopspring/decimal"
)

// SummaryTTL is how long a cached summary is served before it is
// recomputed. Writes never invalidate the cache: a summary may lag the
// transaction set by up to this long.
const SummaryTTL = 300 * time.Second

const recentTransactionLimit = 10

// Aggregator produces financial summaries over a user's transactions.
type Aggregator struct {
	transactions storage.TransactionStorage
	budgets      storage.BudgetStorage
	summaries    cache.Cache[domain.Summary]
	now          func() time.Time
}

func NewAggregator(transactions storage.TransactionStorage, budgets storage.BudgetStorage, summaries cache.Cache[domain.Summary]) *Aggregator {
	return &Aggregator{
		transactions: transactions,
		budgets:      budgets,
		summaries:    summaries,
		now:          time.Now,
	}
}

// WithClock replaces the aggregator's notion of now; tests use it to
// pin the current month.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func summaryKey(userID int64) string {
	return fmt.Sprintf("summary:%d", userID)
}

// Summary computes income/expense totals for the filtered set. The
// unfiltered summary is cached per user; filtered requests always hit
// storage.
func (a *Aggregator) Summary(ctx context.Context, userID int64, f storage.TransactionFilter) (domain.Summary, error) {
	cacheable := f.IsZero()
	if cacheable {
		if sum, ok := a.summaries.Get(summaryKey(userID)); ok {
			return sum, nil
		}
	}

	sum, err := a.transactions.Summarize(ctx, userID, f)
	if err != nil {
		return domain.Summary{}, err
	}

	if cacheable {
		a.summaries.Set(summaryKey(userID), *sum)
	}
	return *sum, nil
}

// Breakdown holds per-category totals split by transaction type, each
// ordered by descending total.
type Breakdown struct {
	IncomeByCategory   []domain.CategoryTotal
	ExpensesByCategory []domain.CategoryTotal
}

func (a *Aggregator) ByCategory(ctx context.Context, userID int64, f storage.TransactionFilter) (*Breakdown, error) {
	income, err := a.transactions.SumByCategory(ctx, userID, domain.Income, f)
	if err != nil {
		return nil, err
	}
	expenses, err := a.transactions.SumByCategory(ctx, userID, domain.Expense, f)
	if err != nil {
		return nil, err
	}
	return &Breakdown{IncomeByCategory: income, ExpensesByCategory: expenses}, nil
}

// BudgetStatus carries the derived quantities of a budget, computed
// from the live transaction set at read time.
type BudgetStatus struct {
	ActualExpenses decimal.Decimal
	Remaining      decimal.Decimal
	PercentageUsed float64
}

func (a *Aggregator) BudgetStatus(ctx context.Context, b *domain.Budget) (BudgetStatus, error) {
	actual, err := a.transactions.MonthExpenseTotal(ctx, b.UserID, b.Month)
	if err != nil {
		return BudgetStatus{}, err
	}

	status := BudgetStatus{
		ActualExpenses: actual,
		Remaining:      b.Amount.Sub(actual),
	}
	if b.Amount.IsPositive() {
		status.PercentageUsed, _ = actual.Div(b.Amount).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}
	return status, nil
}

// Dashboard is the composed read-only summary for one user. Budget
// fields are nil when no budget exists for the current month.
type Dashboard struct {
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	Balance            decimal.Decimal
	MonthlyIncome      decimal.Decimal
	MonthlyExpenses    decimal.Decimal
	CurrentMonthBudget *decimal.Decimal
	BudgetRemaining    *decimal.Decimal
	IncomeByCategory   []domain.CategoryTotal
	ExpensesByCategory []domain.CategoryTotal
	RecentTransactions []domain.Transaction
}

func (a *Aggregator) Dashboard(ctx context.Context, userID int64) (*Dashboard, error) {
	allTime, err := a.transactions.Summarize(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("all-time totals: %w", err)
	}

	now := a.now()
	month, year := int(now.Month()), now.Year()
	thisMonth, err := a.transactions.Summarize(ctx, userID, storage.TransactionFilter{Month: &month, Year: &year})
	if err != nil {
		return nil, fmt.Errorf("current month totals: %w", err)
	}

	breakdown, err := a.ByCategory(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}

	recent, err := a.transactions.RecentTransactions(ctx, userID, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}

	d := &Dashboard{
		TotalIncome:        allTime.TotalIncome,
		TotalExpenses:      allTime.TotalExpenses,
		Balance:            allTime.Balance,
		MonthlyIncome:      thisMonth.TotalIncome,
		MonthlyExpenses:    thisMonth.TotalExpenses,
		IncomeByCategory:   breakdown.IncomeByCategory,
		ExpensesByCategory: breakdown.ExpensesByCategory,
		RecentTransactions: recent,
	}

	budget, err := a.budgets.FindBudgetByMonth(ctx, userID, domain.MonthStart(now))
	switch {
	case err == nil:
		status, err := a.BudgetStatus(ctx, budget)
		if err != nil {
			return nil, fmt.Errorf("budget status: %w", err)
		}
		d.CurrentMonthBudget = &budget.Amount
		d.BudgetRemaining = &status.Remaining
	case errors.Is(err, storage.ErrNotFound):
		// No budget this month: the dashboard reports null fields.
	default:
		return nil, fmt.Errorf("current budget: %w", err)
	}

	return d, nil
}
