// cmd/api/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/auth"
	"github.com/KiranPolaki/BudgetTracker/internal/cache"
	"github.com/KiranPolaki/BudgetTracker/internal/config"
	"github.com/KiranPolaki/BudgetTracker/internal/domain"
	"github.com/KiranPolaki/BudgetTracker/internal/handler"
	"github.com/KiranPolaki/BudgetTracker/internal/middleware"
	"github.com/KiranPolaki/BudgetTracker/internal/service"
	"github.com/KiranPolaki/BudgetTracker/internal/storage/postgres"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	pool, err := pgxpool.New(context.Background(), cfg.DBConn)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStorage(pool)
	tokenService := auth.NewTokenService(cfg)

	summaryCache := cache.NewTTLCache[domain.Summary](service.SummaryTTL)
	go summaryCache.SweepEvery(context.Background(), time.Minute)
	aggregator := service.NewAggregator(store, store, summaryCache)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	handler.SetupRoutes(router, authMiddleware.RequireAuth(),
		handler.NewAuthHandler(store, tokenService),
		handler.NewCategoryHandler(store),
		handler.NewTransactionHandler(store, store, aggregator),
		handler.NewBudgetHandler(store, aggregator),
		handler.NewDashboardHandler(aggregator, store),
	)

	slog.Info("server starting", "port", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
