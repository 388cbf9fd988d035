package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/auth"
	"github.com/KiranPolaki/BudgetTracker/internal/cache"
	"github.com/KiranPolaki/BudgetTracker/internal/config"
	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/middleware"
	"github.com/KiranPolaki/BudgetTracker/internal/service"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

var errInsertFailed = errors.New("insert category failed")

// memStore is an in-memory implementation of all four storage
// interfaces, with the same ownership scoping as the real one.
type memStore struct {
	users        []domain.User
	categories   []domain.Category
	transactions []domain.Transaction
	budgets      []domain.Budget
	lastID       int64

	// failCategory makes CreateCategory fail for that name, simulating
	// a storage-level insert error.
	failCategory string
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

// === UserStorage ===

func (s *memStore) CreateUser(_ context.Context, user *domain.User) error {
	for _, u := range s.users {
		if u.Username == user.Username {
			return storage.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = testNow
	s.users = append(s.users, *user)
	_, _ = s.CreateDefaultCategories(context.Background(), user.ID)
	return nil
}

func (s *memStore) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) FindUserByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

// === CategoryStorage ===

func (s *memStore) ListCategories(_ context.Context, userID int64, f storage.CategoryFilter) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, c := range s.categories {
		if c.UserID != userID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}

	field := "name"
	desc := false
	if f.OrderBy != "" {
		field = strings.TrimPrefix(f.OrderBy, "-")
		desc = strings.HasPrefix(f.OrderBy, "-")
	}
	sort.Slice(out, func(i, j int) bool {
		var less bool
		switch field {
		case "created_at":
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		case "type":
			less = out[i].Type < out[j].Type
		default:
			less = out[i].Name < out[j].Name
		}
		if desc {
			return !less
		}
		return less
	})
	return out, nil
}

func (s *memStore) CreateCategory(_ context.Context, cat *domain.Category) error {
	if cat.Name == s.failCategory {
		return errInsertFailed
	}
	for _, c := range s.categories {
		if c.UserID == cat.UserID && c.Name == cat.Name && c.Type == cat.Type {
			return storage.ErrDuplicate
		}
	}
	cat.ID = s.nextID()
	cat.CreatedAt = testNow
	s.categories = append(s.categories, *cat)
	return nil
}

func (s *memStore) GetCategory(_ context.Context, userID, id int64) (*domain.Category, error) {
	for _, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			out := c
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) UpdateCategory(_ context.Context, cat *domain.Category) error {
	for i, c := range s.categories {
		if c.ID == cat.ID && c.UserID == cat.UserID {
			s.categories[i].Name = cat.Name
			s.categories[i].Type = cat.Type
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) DeleteCategory(_ context.Context, userID, id int64) error {
	for i, c := range s.categories {
		if c.ID == id && c.UserID == userID {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			// Transactions keep their rows, category link goes away.
			for j := range s.transactions {
				if s.transactions[j].CategoryID != nil && *s.transactions[j].CategoryID == id {
					s.transactions[j].CategoryID = nil
					s.transactions[j].CategoryName = nil
				}
			}
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) CreateDefaultCategories(_ context.Context, userID int64) ([]domain.Category, error) {
	created := []domain.Category{}
	for _, d := range domain.DefaultCategories {
		cat := domain.Category{UserID: userID, Name: d.Name, Type: d.Type}
		if err := s.CreateCategory(context.Background(), &cat); err == nil {
			created = append(created, cat)
		}
	}
	return created, nil
}

// === TransactionStorage ===

func (s *memStore) matches(t domain.Transaction, f storage.TransactionFilter) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.DateFrom != nil && t.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.Date.After(*f.DateTo) {
		return false
	}
	if f.AmountMin != nil && t.Amount.LessThan(*f.AmountMin) {
		return false
	}
	if f.AmountMax != nil && t.Amount.GreaterThan(*f.AmountMax) {
		return false
	}
	if f.Month != nil && int(t.Date.Month()) != *f.Month {
		return false
	}
	if f.Year != nil && t.Date.Year() != *f.Year {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		inDesc := strings.Contains(strings.ToLower(t.Description), needle)
		inName := t.CategoryName != nil && strings.Contains(strings.ToLower(*t.CategoryName), needle)
		if !inDesc && !inName {
			return false
		}
	}
	return true
}

func (s *memStore) filtered(userID int64, f storage.TransactionFilter) []domain.Transaction {
	var out []domain.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && s.matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) ListTransactions(_ context.Context, userID int64, f storage.TransactionFilter) ([]domain.Transaction, error) {
	out := s.filtered(userID, f)
	desc := true
	field := "date"
	if f.OrderBy != "" {
		field = strings.TrimPrefix(f.OrderBy, "-")
		desc = strings.HasPrefix(f.OrderBy, "-")
	}
	sort.Slice(out, func(i, j int) bool {
		var less bool
		switch field {
		case "amount":
			less = out[i].Amount.LessThan(out[j].Amount)
		case "created_at":
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		default:
			less = out[i].Date.Before(out[j].Date)
		}
		if desc {
			return !less
		}
		return less
	})
	if out == nil {
		out = []domain.Transaction{}
	}
	return out, nil
}

func (s *memStore) categoryName(userID int64, id *int64) *string {
	if id == nil {
		return nil
	}
	cat, err := s.GetCategory(context.Background(), userID, *id)
	if err != nil {
		return nil
	}
	return &cat.Name
}

func (s *memStore) CreateTransaction(_ context.Context, tx *domain.Transaction) error {
	tx.ID = s.nextID()
	tx.CreatedAt = testNow
	tx.UpdatedAt = testNow
	tx.CategoryName = s.categoryName(tx.UserID, tx.CategoryID)
	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *memStore) GetTransaction(_ context.Context, userID, id int64) (*domain.Transaction, error) {
	for _, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			out := t
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) UpdateTransaction(_ context.Context, tx *domain.Transaction) error {
	for i, t := range s.transactions {
		if t.ID == tx.ID && t.UserID == tx.UserID {
			tx.CreatedAt = t.CreatedAt
			tx.UpdatedAt = testNow
			tx.CategoryName = s.categoryName(tx.UserID, tx.CategoryID)
			s.transactions[i] = *tx
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) DeleteTransaction(_ context.Context, userID, id int64) error {
	for i, t := range s.transactions {
		if t.ID == id && t.UserID == userID {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) Summarize(_ context.Context, userID int64, f storage.TransactionFilter) (*domain.Summary, error) {
	var sum domain.Summary
	for _, t := range s.filtered(userID, f) {
		switch t.Type {
		case domain.Income:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
		case domain.Expense:
			sum.TotalExpenses = sum.TotalExpenses.Add(t.Amount)
		}
		sum.TransactionCount++
	}
	sum.Balance = sum.TotalIncome.Sub(sum.TotalExpenses)
	return &sum, nil
}

func (s *memStore) SumByCategory(_ context.Context, userID int64, txType domain.TransactionType, f storage.TransactionFilter) ([]domain.CategoryTotal, error) {
	byName := map[string]decimal.Decimal{}
	for _, t := range s.filtered(userID, f) {
		if t.Type != txType || t.CategoryName == nil {
			continue
		}
		byName[*t.CategoryName] = byName[*t.CategoryName].Add(t.Amount)
	}
	totals := []domain.CategoryTotal{}
	for name, total := range byName {
		n := name
		totals = append(totals, domain.CategoryTotal{CategoryName: &n, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Total.GreaterThan(totals[j].Total)
	})
	return totals, nil
}

func (s *memStore) RecentTransactions(_ context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	out := s.filtered(userID, storage.TransactionFilter{})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MonthExpenseTotal(_ context.Context, userID int64, month time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range s.transactions {
		if t.UserID == userID && t.Type == domain.Expense && domain.MonthStart(t.Date).Equal(domain.MonthStart(month)) {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// === BudgetStorage ===

func (s *memStore) ListBudgets(_ context.Context, userID int64) ([]domain.Budget, error) {
	out := []domain.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) CreateBudget(_ context.Context, b *domain.Budget) error {
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Month.Equal(b.Month) {
			return storage.ErrDuplicate
		}
	}
	b.ID = s.nextID()
	b.CreatedAt = testNow
	b.UpdatedAt = testNow
	s.budgets = append(s.budgets, *b)
	return nil
}

func (s *memStore) GetBudget(_ context.Context, userID, id int64) (*domain.Budget, error) {
	for _, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			out := b
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) UpdateBudget(_ context.Context, b *domain.Budget) error {
	for i, existing := range s.budgets {
		if existing.ID == b.ID && existing.UserID == b.UserID {
			b.CreatedAt = existing.CreatedAt
			b.UpdatedAt = testNow
			s.budgets[i] = *b
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) DeleteBudget(_ context.Context, userID, id int64) error {
	for i, b := range s.budgets {
		if b.ID == id && b.UserID == userID {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) FindBudgetByMonth(_ context.Context, userID int64, month time.Time) (*domain.Budget, error) {
	for _, b := range s.budgets {
		if b.UserID == userID && b.Month.Equal(month) {
			out := b
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) UpsertBudget(_ context.Context, b *domain.Budget) (bool, error) {
	for i, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Month.Equal(b.Month) {
			s.budgets[i].Amount = b.Amount
			s.budgets[i].UpdatedAt = testNow
			*b = s.budgets[i]
			return false, nil
		}
	}
	return true, s.CreateBudget(context.Background(), b)
}

// === test harness ===

// testAuth is a stand-in for the JWT middleware: the user id comes from
// the X-User-ID header, defaulting to 1.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
		if err != nil || id <= 0 {
			id = 1
		}
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

type testEnv struct {
	store  *memStore
	router *gin.Engine
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	clock := func() time.Time { return testNow }

	summaries := cache.NewTTLCache[domain.Summary](service.SummaryTTL).WithClock(clock)
	agg := service.NewAggregator(store, store, summaries).WithClock(clock)

	cfg := config.Config{
		JWTSecret:           "test-secret",
		JWTAccessExpiresIn:  time.Hour,
		JWTRefreshExpiresIn: 24 * time.Hour,
	}
	tokens := auth.NewTokenService(cfg)

	r := gin.New()
	SetupRoutes(r, testAuth(),
		NewAuthHandler(store, tokens),
		NewCategoryHandler(store),
		NewTransactionHandler(store, store, agg),
		NewBudgetHandler(store, agg).WithClock(clock),
		NewDashboardHandler(agg, store))

	return &testEnv{store: store, router: r, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// seedUser creates a user directly in the store and returns its id.
// The password for login tests is always "password123".
func (e *testEnv) seedUser(t *testing.T, username string) int64 {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := domain.User{Username: username, Email: username + "@example.com", PasswordHash: hash}
	if err := e.store.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

// seedCategory creates a category owned by userID and returns its id.
func (e *testEnv) seedCategory(t *testing.T, userID int64, name string, typ domain.TransactionType) int64 {
	t.Helper()
	cat := domain.Category{UserID: userID, Name: name, Type: typ}
	if err := e.store.CreateCategory(context.Background(), &cat); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return cat.ID
}

// seedTransaction inserts a transaction for userID on the given date.
func (e *testEnv) seedTransaction(t *testing.T, userID int64, typ domain.TransactionType, amount, date string, categoryID *int64) int64 {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount: %v", err)
	}
	tx := domain.Transaction{UserID: userID, Type: typ, Amount: amt, Date: d, CategoryID: categoryID}
	if err := e.store.CreateTransaction(context.Background(), &tx); err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return tx.ID
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}
