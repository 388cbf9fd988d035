// internal/handler/dashboard.go
package handler

import (
	"net/http"

	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/service"
	"github.com/KiranPolaki/BudgetTracker/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type DashboardHandler struct {
	aggregator *service.Aggregator
	users      storage.UserStorage
}

func NewDashboardHandler(aggregator *service.Aggregator, users storage.UserStorage) *DashboardHandler {
	return &DashboardHandler{aggregator: aggregator, users: users}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	d, err := h.aggregator.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondStorageError(c, err, "Failed to build dashboard")
		return
	}

	c.JSON(http.StatusOK, DashboardResponse{
		TotalIncome:        d.TotalIncome,
		TotalExpenses:      d.TotalExpenses,
		Balance:            d.Balance,
		MonthlyIncome:      d.MonthlyIncome,
		MonthlyExpenses:    d.MonthlyExpenses,
		CurrentMonthBudget: d.CurrentMonthBudget,
		BudgetRemaining:    d.BudgetRemaining,
		IncomeByCategory:   d.IncomeByCategory,
		ExpensesByCategory: d.ExpensesByCategory,
		RecentTransactions: newTransactionResponses(d.RecentTransactions),
	})
}

// Profile returns the requester's own identity fields.
func (h *DashboardHandler) Profile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		respondStorageError(c, err, "Failed to get profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// === DTO ===

type DashboardResponse struct {
	TotalIncome        decimal.Decimal        `json:"total_income"`
	TotalExpenses      decimal.Decimal        `json:"total_expenses"`
	Balance            decimal.Decimal        `json:"balance"`
	MonthlyIncome      decimal.Decimal        `json:"monthly_income"`
	MonthlyExpenses    decimal.Decimal        `json:"monthly_expenses"`
	CurrentMonthBudget *decimal.Decimal       `json:"current_month_budget"`
	BudgetRemaining    *decimal.Decimal       `json:"budget_remaining"`
	IncomeByCategory   []domain.CategoryTotal `json:"income_by_category"`
	ExpensesByCategory []domain.CategoryTotal `json:"expenses_by_category"`
	RecentTransactions []TransactionResponse  `json:"recent_transactions"`
}
