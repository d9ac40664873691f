package handler

import (
	"github.com/dafibh/ledger/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, rateLimiter *middleware.RateLimiter, ledgerHandler *LedgerHandler, wsHandler *WebSocketHandler) {
	api := e.Group("/api")
	if rateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	// API version 1, one group per ledger
	ledger := api.Group("/v1/ledgers/:ledger")
	ledger.GET("/balance", ledgerHandler.GetBalance)
	ledger.GET("/expenses", ledgerHandler.ListExpenses)
	ledger.POST("/expenses", ledgerHandler.AddExpense)
	ledger.GET("/budget", ledgerHandler.GetBudget)
	ledger.POST("/budget", ledgerHandler.SetBudget)
	ledger.PUT("/budget", ledgerHandler.SetBudget)
	ledger.DELETE("/reset", ledgerHandler.Reset)
	if wsHandler != nil {
		ledger.GET("/ws", wsHandler.HandleWS)
	}

	// Unversioned routes address the default ledger
	api.GET("/balance", ledgerHandler.GetBalance)
	api.GET("/expenses", ledgerHandler.ListExpenses)
	api.POST("/expenses", ledgerHandler.AddExpense)
	api.GET("/budget", ledgerHandler.GetBudget)
	api.POST("/budget", ledgerHandler.SetBudget)
	api.DELETE("/reset", ledgerHandler.Reset)
}
