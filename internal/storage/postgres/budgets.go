// internal/storage/postgres/budgets.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (s *Storage) ListBudgets(ctx context.Context, userID int64) ([]domain.Budget, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, month, amount, created_at, updated_at
		FROM budgets
		WHERE user_id = $1
		ORDER BY month DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		var b domain.Budget
		b.UserID = userID
		if err := rows.Scan(&b.ID, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *Storage) CreateBudget(ctx context.Context, b *domain.Budget) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO budgets (user_id, month, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.Month, b.Amount).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *Storage) GetBudget(ctx context.Context, userID, id int64) (*domain.Budget, error) {
	var b domain.Budget
	b.UserID = userID
	err := s.db.QueryRow(ctx, `
		SELECT id, month, amount, created_at, updated_at
		FROM budgets
		WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&b.ID, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (s *Storage) UpdateBudget(ctx context.Context, b *domain.Budget) error {
	err := s.db.QueryRow(ctx, `
		UPDATE budgets SET month = $1, amount = $2, updated_at = now()
		WHERE user_id = $3 AND id = $4
		RETURNING updated_at
	`, b.Month, b.Amount, b.UserID, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (s *Storage) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := s.db.Exec(ctx, `
		DELETE FROM budgets WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) FindBudgetByMonth(ctx context.Context, userID int64, month time.Time) (*domain.Budget, error) {
	var b domain.Budget
	b.UserID = userID
	err := s.db.QueryRow(ctx, `
		SELECT id, month, amount, created_at, updated_at
		FROM budgets
		WHERE user_id = $1 AND month = $2
	`, userID, domain.MonthStart(month)).Scan(&b.ID, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find budget by month: %w", err)
	}
	return &b, nil
}

func (s *Storage) UpsertBudget(ctx context.Context, b *domain.Budget) (bool, error) {
	var created bool
	err := s.db.QueryRow(ctx, `
		INSERT INTO budgets (user_id, month, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, month)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
		RETURNING id, created_at, updated_at, (xmax = 0)
	`, b.UserID, b.Month, b.Amount).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert budget: %w", err)
	}
	return created, nil
}
