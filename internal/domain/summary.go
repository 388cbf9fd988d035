// internal/domain/summary.go
package domain

import "github.com/shopspring/decimal"

// Summary holds aggregate totals for a transaction set.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

// CategoryTotal is one row of a by-category breakdown. CategoryName is
// nil for uncategorized transactions.
type CategoryTotal struct {
	CategoryName *string         `json:"category__name"`
	Total        decimal.Decimal `json:"total"`
}
