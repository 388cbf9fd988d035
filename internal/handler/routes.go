// internal/handler/routes.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes mounts every endpoint on the router. authMW gates the
// non-auth routes; tests pass a stub that injects a user id directly.
func SetupRoutes(r *gin.Engine, authMW gin.HandlerFunc,
	authH *AuthHandler, categories *CategoryHandler, transactions *TransactionHandler,
	budgets *BudgetHandler, dashboard *DashboardHandler) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/refresh", authH.Refresh)

	protected := api.Group("", authMW)
	{
		protected.GET("/categories", categories.List)
		protected.POST("/categories", categories.Create)
		protected.POST("/categories/create_defaults", categories.CreateDefaults)
		protected.GET("/categories/:id", categories.Get)
		protected.PUT("/categories/:id", categories.Update)
		protected.DELETE("/categories/:id", categories.Delete)

		protected.GET("/transactions", transactions.List)
		protected.POST("/transactions", transactions.Create)
		protected.GET("/transactions/summary", transactions.Summary)
		protected.GET("/transactions/by_category", transactions.ByCategory)
		protected.GET("/transactions/:id", transactions.Get)
		protected.PUT("/transactions/:id", transactions.Update)
		protected.DELETE("/transactions/:id", transactions.Delete)

		protected.GET("/budgets", budgets.List)
		protected.POST("/budgets", budgets.Create)
		protected.GET("/budgets/current", budgets.Current)
		protected.POST("/budgets/set_current", budgets.SetCurrent)
		protected.GET("/budgets/:id", budgets.Get)
		protected.PUT("/budgets/:id", budgets.Update)
		protected.DELETE("/budgets/:id", budgets.Delete)

		protected.GET("/dashboard", dashboard.Dashboard)
		protected.GET("/profile", dashboard.Profile)
	}
}
