// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	db *pgxpool.Pool
}

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// uniqueViolation maps a postgres unique constraint error to the
// matching storage sentinel, or returns nil if err is something else.
func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return storage.ErrUsernameTaken
	case "users_email_key":
		return storage.ErrEmailTaken
	default:
		return storage.ErrDuplicate
	}
}

// === UserStorage ===

func (s *Storage) CreateUser(ctx context.Context, user *domain.User) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}

	// Default categories ride in the same transaction as the user row.
	// Each insert runs under its own savepoint: a statement error would
	// otherwise abort the outer transaction and take registration down
	// with it. A failing insert is logged and skipped.
	for _, dc := range domain.DefaultCategories {
		sp, err := tx.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin savepoint: %w", err)
		}
		_, err = sp.Exec(ctx, `
			INSERT INTO categories (user_id, name, type)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, name, type) DO NOTHING
		`, user.ID, dc.Name, dc.Type)
		if err != nil {
			slog.Warn("default category skipped", "user_id", user.ID, "name", dc.Name, "error", err)
			_ = sp.Rollback(ctx)
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Storage) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name, created_at
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &u, nil
}

func (s *Storage) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// === CategoryStorage ===

const categoryColumns = `
	c.id, c.name, c.type, c.created_at,
	(SELECT COUNT(*) FROM transactions t WHERE t.category_id = c.id) AS transaction_count`

// categoryOrderClause maps an OrderBy override onto a safe ORDER BY
// expression. Unknown fields fall back to the name ordering.
func categoryOrderClause(orderBy string) string {
	dir := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		field = orderBy[1:]
	}
	switch field {
	case "name", "created_at", "type":
		return fmt.Sprintf("c.%s %s", field, dir)
	default:
		return "c.name ASC"
	}
}

func (s *Storage) ListCategories(ctx context.Context, userID int64, f storage.CategoryFilter) ([]domain.Category, error) {
	q := `
		SELECT ` + categoryColumns + `
		FROM categories c
		WHERE c.user_id = $1`
	args := []any{userID}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		q += fmt.Sprintf(" AND c.name ILIKE $%d", len(args))
	}
	q += " ORDER BY " + categoryOrderClause(f.OrderBy)

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var cat domain.Category
		cat.UserID = userID
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.CreatedAt, &cat.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (s *Storage) CreateCategory(ctx context.Context, cat *domain.Category) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, cat.UserID, cat.Name, cat.Type).Scan(&cat.ID, &cat.CreatedAt)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *Storage) GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error) {
	var cat domain.Category
	cat.UserID = userID
	err := s.db.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE c.user_id = $1 AND c.id = $2
	`, userID, id).Scan(&cat.ID, &cat.Name, &cat.Type, &cat.CreatedAt, &cat.TransactionCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, cat *domain.Category) error {
	res, err := s.db.Exec(ctx, `
		UPDATE categories SET name = $1, type = $2
		WHERE user_id = $3 AND id = $4
	`, cat.Name, cat.Type, cat.UserID, cat.ID)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update category: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, id int64) error {
	// Referencing transactions get category_id nulled by the FK's
	// ON DELETE SET NULL; the transactions themselves survive.
	res, err := s.db.Exec(ctx, `
		DELETE FROM categories WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) CreateDefaultCategories(ctx context.Context, userID int64) ([]domain.Category, error) {
	created := []domain.Category{}
	for _, dc := range domain.DefaultCategories {
		cat := domain.Category{UserID: userID, Name: dc.Name, Type: dc.Type}
		err := s.db.QueryRow(ctx, `
			INSERT INTO categories (user_id, name, type)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, name, type) DO NOTHING
			RETURNING id, created_at
		`, userID, dc.Name, dc.Type).Scan(&cat.ID, &cat.CreatedAt)
		if err != nil {
			// No row means the category already existed.
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			slog.Warn("default category skipped", "user_id", userID, "name", dc.Name, "error", err)
			continue
		}
		created = append(created, cat)
	}
	return created, nil
}
