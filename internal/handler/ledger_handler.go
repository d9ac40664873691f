package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/dafibh/ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LedgerHandler handles budget, expense, balance and reset requests
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// flexString accepts either a JSON string or a JSON number and keeps its text.
// Browser forms send numbers as strings, scripted clients send numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("expected a string or a number")
	}
	*f = flexString(n.String())
	return nil
}

// AddExpenseRequest represents the request body for recording an expense
type AddExpenseRequest struct {
	Item     string     `json:"item"`
	Cost     flexString `json:"cost"`
	Quantity flexString `json:"quantity"`
}

// SetBudgetRequest represents the request body for setting the budget
type SetBudgetRequest struct {
	Amount flexString `json:"amount"`
}

// BalanceResponse represents the derived aggregates of a ledger
type BalanceResponse struct {
	Budget        json.Number `json:"budget"`
	TotalExpenses json.Number `json:"total_expenses"`
	Remaining     json.Number `json:"remaining"`
	Percentage    json.Number `json:"percentage"`
	Configured    bool        `json:"configured"`
	OverBudget    bool        `json:"over_budget"`
}

// ExpenseResponse represents one transaction
type ExpenseResponse struct {
	ID        int64       `json:"id"`
	Item      string      `json:"item"`
	Cost      json.Number `json:"cost"`
	Quantity  int32       `json:"quantity"`
	LineTotal json.Number `json:"line_total"`
	Date      time.Time   `json:"date"`
}

// AddExpenseResponse acknowledges a recorded expense
type AddExpenseResponse struct {
	Message string          `json:"message"`
	Expense ExpenseResponse `json:"expense"`
}

// BudgetResponse represents the ledger budget
type BudgetResponse struct {
	Message    string      `json:"message,omitempty"`
	Amount     json.Number `json:"amount"`
	Configured bool        `json:"configured"`
}

// ledgerID returns the ledger addressed by the request; the unversioned
// routes have no :ledger parameter and address the default ledger.
func ledgerID(c echo.Context) string {
	if id := c.Param("ledger"); id != "" {
		return id
	}
	return domain.DefaultLedgerID
}

// GetBalance handles GET /api/v1/ledgers/:ledger/balance
func (h *LedgerHandler) GetBalance(c echo.Context) error {
	id := ledgerID(c)

	balance, err := h.ledgerService.GetBalance(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, id, "Failed to get balance")
	}

	return c.JSON(http.StatusOK, toBalanceResponse(balance))
}

// ListExpenses handles GET /api/v1/ledgers/:ledger/expenses
func (h *LedgerHandler) ListExpenses(c echo.Context) error {
	id := ledgerID(c)

	txs, err := h.ledgerService.ListExpenses(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, id, "Failed to list expenses")
	}

	response := make([]ExpenseResponse, len(txs))
	for i, tx := range txs {
		response[i] = toExpenseResponse(tx)
	}
	return c.JSON(http.StatusOK, response)
}

// AddExpense handles POST /api/v1/ledgers/:ledger/expenses
func (h *LedgerHandler) AddExpense(c echo.Context) error {
	id := ledgerID(c)

	var req AddExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	tx, err := h.ledgerService.AddExpense(c.Request().Context(), id, domain.ExpenseInput{
		Item:     req.Item,
		Cost:     string(req.Cost),
		Quantity: string(req.Quantity),
	})
	if err != nil {
		return h.handleError(c, err, id, "Failed to add expense")
	}

	log.Info().
		Str("ledger_id", id).
		Int64("expense_id", tx.ID).
		Str("cost", tx.Cost.StringFixed(2)).
		Int32("quantity", tx.Quantity).
		Msg("Expense added")

	return c.JSON(http.StatusCreated, AddExpenseResponse{
		Message: "Expense added",
		Expense: toExpenseResponse(tx),
	})
}

// GetBudget handles GET /api/v1/ledgers/:ledger/budget
func (h *LedgerHandler) GetBudget(c echo.Context) error {
	id := ledgerID(c)

	budget, err := h.ledgerService.GetBudget(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, id, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, BudgetResponse{
		Amount:     money(budget.Amount),
		Configured: budget.Configured,
	})
}

// SetBudget handles POST and PUT /api/v1/ledgers/:ledger/budget
func (h *LedgerHandler) SetBudget(c echo.Context) error {
	id := ledgerID(c)

	var req SetBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budget, err := h.ledgerService.SetBudget(c.Request().Context(), id, string(req.Amount))
	if err != nil {
		return h.handleError(c, err, id, "Failed to set budget")
	}

	log.Info().Str("ledger_id", id).Str("amount", budget.Amount.StringFixed(2)).Msg("Budget set")

	return c.JSON(http.StatusOK, BudgetResponse{
		Message:    "Budget set successfully",
		Amount:     money(budget.Amount),
		Configured: budget.Configured,
	})
}

// Reset handles DELETE /api/v1/ledgers/:ledger/reset
func (h *LedgerHandler) Reset(c echo.Context) error {
	id := ledgerID(c)

	if err := h.ledgerService.Reset(c.Request().Context(), id); err != nil {
		return h.handleError(c, err, id, "Failed to reset ledger")
	}

	log.Warn().Str("ledger_id", id).Msg("Ledger reset")

	return c.JSON(http.StatusOK, MessageResponse{Message: "Data reset successfully"})
}

// handleError maps service errors to problem responses
func (h *LedgerHandler) handleError(c echo.Context, err error, id string, failure string) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return NewValidationError(c, "Invalid input", []ValidationError{
			{Field: verr.Field, Message: verr.Message},
		})
	}
	if errors.Is(err, domain.ErrInvalidLedger) {
		return NewValidationError(c, "Invalid ledger id", []ValidationError{
			{Field: "ledger", Message: "Ledger id must be lowercase letters, digits, '-' or '_'"},
		})
	}

	log.Error().Err(err).Str("ledger_id", id).Msg(failure)
	return NewInternalError(c, failure)
}

func toBalanceResponse(balance *domain.Balance) BalanceResponse {
	return BalanceResponse{
		Budget:        money(balance.Budget),
		TotalExpenses: money(balance.TotalExpenses),
		Remaining:     money(balance.Remaining),
		Percentage:    money(balance.Percentage),
		Configured:    balance.Configured,
		OverBudget:    balance.OverBudget,
	}
}

func toExpenseResponse(tx *domain.Transaction) ExpenseResponse {
	return ExpenseResponse{
		ID:        tx.ID,
		Item:      tx.Item,
		Cost:      money(tx.Cost),
		Quantity:  tx.Quantity,
		LineTotal: money(tx.LineTotal()),
		Date:      tx.CreatedAt,
	}
}
