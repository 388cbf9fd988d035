// internal/handler/budget.go
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/service"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BudgetHandler struct {
	store      storage.BudgetStorage
	aggregator *service.Aggregator
	now        func() time.Time
}

func NewBudgetHandler(store storage.BudgetStorage, aggregator *service.Aggregator) *BudgetHandler {
	return &BudgetHandler{store: store, aggregator: aggregator, now: time.Now}
}

// WithClock pins the handler's current month for tests.
func (h *BudgetHandler) WithClock(now func() time.Time) *BudgetHandler {
	h.now = now
	return h
}

// respond shapes a budget with its derived quantities, which are
// recomputed from the live transaction set on every read.
func (h *BudgetHandler) respond(c *gin.Context, status int, b *domain.Budget) {
	bs, err := h.aggregator.BudgetStatus(c.Request.Context(), b)
	if err != nil {
		respondStorageError(c, err, "Failed to compute budget status")
		return
	}
	c.JSON(status, newBudgetResponse(*b, bs))
}

func (h *BudgetHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	budgets, err := h.store.ListBudgets(c.Request.Context(), userID)
	if err != nil {
		respondStorageError(c, err, "Failed to list budgets")
		return
	}

	out := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		bs, err := h.aggregator.BudgetStatus(c.Request.Context(), &b)
		if err != nil {
			respondStorageError(c, err, "Failed to compute budget status")
			return
		}
		out[i] = newBudgetResponse(b, bs)
	}
	c.JSON(http.StatusOK, out)
}

func (h *BudgetHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month, _ := time.Parse("2006-01-02", req.Month)
	b := domain.Budget{UserID: userID, Month: month, Amount: req.Amount}
	if err := b.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.CreateBudget(c.Request.Context(), &b); err != nil {
		respondStorageError(c, err, "Failed to create budget")
		return
	}
	h.respond(c, http.StatusCreated, &b)
}

func (h *BudgetHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := h.store.GetBudget(c.Request.Context(), userID, id)
	if err != nil {
		respondStorageError(c, err, "Failed to get budget")
		return
	}
	h.respond(c, http.StatusOK, b)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	month, _ := time.Parse("2006-01-02", req.Month)
	b := domain.Budget{ID: id, UserID: userID, Month: month, Amount: req.Amount}
	if err := b.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateBudget(c.Request.Context(), &b); err != nil {
		respondStorageError(c, err, "Failed to update budget")
		return
	}
	h.respond(c, http.StatusOK, &b)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteBudget(c.Request.Context(), userID, id); err != nil {
		respondStorageError(c, err, "Failed to delete budget")
		return
	}
	c.Status(http.StatusNoContent)
}

// Current returns this month's budget, 404 when none is set.
func (h *BudgetHandler) Current(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	month := domain.MonthStart(h.now())
	b, err := h.store.FindBudgetByMonth(c.Request.Context(), userID, month)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "No budget set for current month",
				"month":   month.Format("2006-01-02"),
			})
			return
		}
		respondStorageError(c, err, "Failed to get current budget")
		return
	}
	h.respond(c, http.StatusOK, b)
}

// SetCurrent upserts this month's budget: 201 when created, 200 when
// the existing amount was replaced.
func (h *BudgetHandler) SetCurrent(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SetCurrentBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	b := domain.Budget{
		UserID: userID,
		Month:  domain.MonthStart(h.now()),
		Amount: req.Amount,
	}
	if err := b.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.UpsertBudget(c.Request.Context(), &b)
	if err != nil {
		respondStorageError(c, err, "Failed to set budget")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respond(c, status, &b)
}

// === DTO ===

type BudgetRequest struct {
	Month  string          `json:"month" validate:"required,firstofmonth"`
	Amount decimal.Decimal `json:"amount" validate:"-"`
}

type SetCurrentBudgetRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"-"`
}

type BudgetResponse struct {
	ID             int64           `json:"id"`
	Month          string          `json:"month"`
	Amount         decimal.Decimal `json:"amount"`
	ActualExpenses decimal.Decimal `json:"actual_expenses"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed float64         `json:"percentage_used"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newBudgetResponse(b domain.Budget, bs service.BudgetStatus) BudgetResponse {
	return BudgetResponse{
		ID:             b.ID,
		Month:          b.Month.Format("2006-01-02"),
		Amount:         b.Amount,
		ActualExpenses: bs.ActualExpenses,
		Remaining:      bs.Remaining,
		PercentageUsed: bs.PercentageUsed,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
