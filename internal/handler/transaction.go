// internal/handler/transaction.go
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/service"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	store      storage.TransactionStorage
	categories storage.CategoryStorage
	aggregator *service.Aggregator
}

func NewTransactionHandler(store storage.TransactionStorage, categories storage.CategoryStorage, aggregator *service.Aggregator) *TransactionHandler {
	return &TransactionHandler{store: store, categories: categories, aggregator: aggregator}
}

// parseTransactionFilter builds a filter from query parameters. Every
// parameter is optional; malformed values are reported, not ignored.
func parseTransactionFilter(c *gin.Context) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter

	if s := c.Query("type"); s != "" {
		t := domain.TransactionType(s)
		if !t.Valid() {
			return f, errors.New("type must be INCOME or EXPENSE")
		}
		f.Type = &t
	}
	if s := c.Query("category"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return f, errors.New("category must be an integer id")
		}
		f.CategoryID = &id
	}
	if s := c.Query("date_from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, errors.New("date_from must be in YYYY-MM-DD format")
		}
		f.DateFrom = &t
	}
	if s := c.Query("date_to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, errors.New("date_to must be in YYYY-MM-DD format")
		}
		f.DateTo = &t
	}
	if s := c.Query("amount_min"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return f, errors.New("amount_min must be a number")
		}
		f.AmountMin = &d
	}
	if s := c.Query("amount_max"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return f, errors.New("amount_max must be a number")
		}
		f.AmountMax = &d
	}
	if s := c.Query("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return f, errors.New("month must be between 1 and 12")
		}
		f.Month = &m
	}
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return f, errors.New("year must be an integer")
		}
		f.Year = &y
	}
	f.Search = c.Query("search")
	f.OrderBy = c.Query("ordering")
	return f, nil
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	f, err := parseTransactionFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactions, err := h.store.ListTransactions(c.Request.Context(), userID, f)
	if err != nil {
		respondStorageError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, newTransactionResponses(transactions))
}

// resolveCategory enforces that an attached category exists, belongs
// to the requester, and matches the transaction type.
func (h *TransactionHandler) resolveCategory(c *gin.Context, userID int64, categoryID *int64, txType domain.TransactionType) bool {
	if categoryID == nil {
		return true
	}
	cat, err := h.categories.GetCategory(c.Request.Context(), userID, *categoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"category": "Invalid category"})
			return false
		}
		respondStorageError(c, err, "Failed to check category")
		return false
	}
	if cat.Type != txType {
		c.JSON(http.StatusBadRequest, gin.H{"category": fmt.Sprintf("Category type must be %s", txType)})
		return false
	}
	return true
}

func (h *TransactionHandler) bind(c *gin.Context, userID int64) (*domain.Transaction, bool) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return nil, false
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	tx := domain.Transaction{
		UserID:      userID,
		CategoryID:  req.Category,
		Type:        domain.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	}
	if err := tx.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if !h.resolveCategory(c, userID, tx.CategoryID, tx.Type) {
		return nil, false
	}
	return &tx, true
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	tx, ok := h.bind(c, userID)
	if !ok {
		return
	}

	if err := h.store.CreateTransaction(c.Request.Context(), tx); err != nil {
		respondStorageError(c, err, "Failed to create transaction")
		return
	}

	created, err := h.store.GetTransaction(c.Request.Context(), userID, tx.ID)
	if err != nil {
		respondStorageError(c, err, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusCreated, newTransactionResponse(*created))
}

func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	tx, err := h.store.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		respondStorageError(c, err, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusOK, newTransactionResponse(*tx))
}

func (h *TransactionHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, ok := h.bind(c, userID)
	if !ok {
		return
	}
	tx.ID = id

	if err := h.store.UpdateTransaction(c.Request.Context(), tx); err != nil {
		respondStorageError(c, err, "Failed to update transaction")
		return
	}

	updated, err := h.store.GetTransaction(c.Request.Context(), userID, id)
	if err != nil {
		respondStorageError(c, err, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusOK, newTransactionResponse(*updated))
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteTransaction(c.Request.Context(), userID, id); err != nil {
		respondStorageError(c, err, "Failed to delete transaction")
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary returns totals for the filtered set. Unfiltered summaries
// are served from a 5-minute cache and may lag recent writes.
func (h *TransactionHandler) Summary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	f, err := parseTransactionFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sum, err := h.aggregator.Summary(c.Request.Context(), userID, f)
	if err != nil {
		respondStorageError(c, err, "Failed to summarize transactions")
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *TransactionHandler) ByCategory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	f, err := parseTransactionFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	breakdown, err := h.aggregator.ByCategory(c.Request.Context(), userID, f)
	if err != nil {
		respondStorageError(c, err, "Failed to group transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"income_by_category":   breakdown.IncomeByCategory,
		"expenses_by_category": breakdown.ExpensesByCategory,
	})
}

// === DTO ===

type TransactionRequest struct {
	Type        string          `json:"type" validate:"required,txtype"`
	Amount      decimal.Decimal `json:"amount" validate:"-"`
	Description string          `json:"description"`
	Date        string          `json:"date" validate:"required,dateonly"`
	Category    *int64          `json:"category"`
}

type TransactionResponse struct {
	ID           int64                  `json:"id"`
	Type         domain.TransactionType `json:"type"`
	Amount       decimal.Decimal        `json:"amount"`
	Description  string                 `json:"description"`
	Date         string                 `json:"date"`
	Category     *int64                 `json:"category"`
	CategoryName *string                `json:"category_name"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func newTransactionResponse(t domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Type:         t.Type,
		Amount:       t.Amount,
		Description:  t.Description,
		Date:         t.Date.Format("2006-01-02"),
		Category:     t.CategoryID,
		CategoryName: t.CategoryName,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func newTransactionResponses(transactions []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		out[i] = newTransactionResponse(t)
	}
	return out
}
