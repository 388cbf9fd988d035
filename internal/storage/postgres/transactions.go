// internal/storage/postgres/transactions.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
	t.id, t.category_id, t.type, t.amount, t.description, t.date,
	t.created_at, t.updated_at, c.name`

const defaultTransactionOrder = "t.date DESC, t.created_at DESC"

// buildFilter renders the filter into WHERE conditions. Arguments start
// at $2; $1 is always the user id.
func buildFilter(f storage.TransactionFilter) ([]string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)+1))
	}

	if f.Type != nil {
		add("t.type = $%d", *f.Type)
	}
	if f.CategoryID != nil {
		add("t.category_id = $%d", *f.CategoryID)
	}
	if f.DateFrom != nil {
		add("t.date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("t.date <= $%d", *f.DateTo)
	}
	if f.AmountMin != nil {
		add("t.amount >= $%d", *f.AmountMin)
	}
	if f.AmountMax != nil {
		add("t.amount <= $%d", *f.AmountMax)
	}
	if f.Month != nil {
		add("EXTRACT(MONTH FROM t.date) = $%d", *f.Month)
	}
	if f.Year != nil {
		add("EXTRACT(YEAR FROM t.date) = $%d", *f.Year)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args) + 1
		conds = append(conds, fmt.Sprintf("(t.description ILIKE $%d OR c.name ILIKE $%d)", n, n))
	}
	return conds, args
}

// orderClause maps an OrderBy override onto a safe ORDER BY expression.
// Unknown fields fall back to the default ordering.
func orderClause(orderBy string) string {
	dir := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		field = orderBy[1:]
	}
	switch field {
	case "date":
		return fmt.Sprintf("t.date %s, t.created_at DESC", dir)
	case "amount":
		return fmt.Sprintf("t.amount %s", dir)
	case "created_at":
		return fmt.Sprintf("t.created_at %s", dir)
	default:
		return defaultTransactionOrder
	}
}

func transactionQuery(selectCols string, f storage.TransactionFilter) (string, []any) {
	conds, args := buildFilter(f)
	where := "t.user_id = $1"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	q := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE %s
	`, selectCols, where)
	return q, args
}

func scanTransaction(row pgx.Row, userID int64) (*domain.Transaction, error) {
	var t domain.Transaction
	t.UserID = userID
	err := row.Scan(&t.ID, &t.CategoryID, &t.Type, &t.Amount, &t.Description,
		&t.Date, &t.CreatedAt, &t.UpdatedAt, &t.CategoryName)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]domain.Transaction, error) {
	q, args := transactionQuery(transactionColumns, f)
	q += " ORDER BY " + orderClause(f.OrderBy)

	rows, err := s.db.Query(ctx, q, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *Storage) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, category_id, type, amount, description, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, tx.UserID, tx.CategoryID, tx.Type, tx.Amount, tx.Description, tx.Date).
		Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Storage) GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.id = $2
	`, userID, id)

	t, err := scanTransaction(row, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Storage) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	err := s.db.QueryRow(ctx, `
		UPDATE transactions
		SET category_id = $1, type = $2, amount = $3, description = $4, date = $5,
		    updated_at = now()
		WHERE user_id = $6 AND id = $7
		RETURNING updated_at
	`, tx.CategoryID, tx.Type, tx.Amount, tx.Description, tx.Date, tx.UserID, tx.ID).
		Scan(&tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.Exec(ctx, `
		DELETE FROM transactions WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Summarize totals the filtered set in a single grouped pass. Types
// with no transactions come back as zero.
func (s *Storage) Summarize(ctx context.Context, userID int64, f storage.TransactionFilter) (*domain.Summary, error) {
	q, args := transactionQuery(`
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'INCOME'), 0),
		COALESCE(SUM(t.amount) FILTER (WHERE t.type = 'EXPENSE'), 0),
		COUNT(*)`, f)

	var sum domain.Summary
	err := s.db.QueryRow(ctx, q, append([]any{userID}, args...)...).
		Scan(&sum.TotalIncome, &sum.TotalExpenses, &sum.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpenses)
	return &sum, nil
}

// SumByCategory groups one transaction type by category name, largest
// total first. Uncategorized transactions group under a NULL name.
func (s *Storage) SumByCategory(ctx context.Context, userID int64, txType domain.TransactionType, f storage.TransactionFilter) ([]domain.CategoryTotal, error) {
	conds, args := buildFilter(f)
	where := "t.user_id = $1"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}
	args = append(args, txType)
	where += fmt.Sprintf(" AND t.type = $%d", len(args)+1)

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT c.name, SUM(t.amount) AS total
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE %s
		GROUP BY c.name
		ORDER BY total DESC
	`, where), append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	totals := []domain.CategoryTotal{}
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.CategoryName, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (s *Storage) RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY `+defaultTransactionOrder+`
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows, userID)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *Storage) MonthExpenseTotal(ctx context.Context, userID int64, month time.Time) (decimal.Decimal, error) {
	month = domain.MonthStart(month)
	var total decimal.Decimal
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = 'EXPENSE'
		  AND date >= $2 AND date < ($2::date + INTERVAL '1 month')
	`, userID, month).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("month expense total: %w", err)
	}
	return total, nil
}
