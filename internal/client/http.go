package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient is a Store backed by the ledger REST API
type HTTPClient struct {
	baseURL  string
	ledgerID string
	http     *http.Client
}

// NewHTTPClient creates a client for one ledger on the server at baseURL
func NewHTTPClient(baseURL, ledgerID string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		ledgerID: ledgerID,
		http:     &http.Client{Timeout: timeout},
	}
}

type problem struct {
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors"`
}

// GetBalance fetches the ledger aggregates
func (c *HTTPClient) GetBalance(ctx context.Context) (*Balance, error) {
	var balance Balance
	if err := c.do(ctx, "get balance", http.MethodGet, "/balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// ListExpenses fetches the transactions, newest first
func (c *HTTPClient) ListExpenses(ctx context.Context) ([]Expense, error) {
	var expenses []Expense
	if err := c.do(ctx, "list expenses", http.MethodGet, "/expenses", nil, &expenses); err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []Expense{}
	}
	return expenses, nil
}

// AddExpense records an expense; an empty quantity lets the store default it
func (c *HTTPClient) AddExpense(ctx context.Context, item, cost, quantity string) error {
	body := map[string]string{"item": item, "cost": cost}
	if quantity != "" {
		body["quantity"] = quantity
	}
	return c.do(ctx, "add expense", http.MethodPost, "/expenses", body, nil)
}

// SetBudget replaces the ledger budget
func (c *HTTPClient) SetBudget(ctx context.Context, amount string) error {
	return c.do(ctx, "set budget", http.MethodPut, "/budget", map[string]string{"amount": amount}, nil)
}

// Reset clears the ledger
func (c *HTTPClient) Reset(ctx context.Context) error {
	return c.do(ctx, "reset", http.MethodDelete, "/reset", nil, nil)
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL + "/api/v1/ledgers/" + url.PathEscape(c.ledgerID) + path
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var p problem
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding problem: %w", err)}
		}
		return &ValidationError{Detail: p.Detail, Fields: p.Errors}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var p problem
		_ = json.NewDecoder(resp.Body).Decode(&p)
		msg := p.Detail
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
