package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/ledger/internal/handler"
	"github.com/dafibh/ledger/internal/repository/memory"
	"github.com/dafibh/ledger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newLedgerServer runs the real router over an in-memory store
func newLedgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := echo.New()
	svc := service.NewLedgerService(memory.NewLedgerRepository())
	handler.RegisterRoutes(e, nil, handler.NewLedgerHandler(svc), nil)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_RoundTrip(t *testing.T) {
	srv := newLedgerServer(t)
	c := NewHTTPClient(srv.URL+"/", "default", 5*time.Second)
	ctx := context.Background()

	balance, err := c.GetBalance(ctx)
	require.NoError(t, err)
	assert.False(t, balance.Configured)
	assert.True(t, balance.Budget.IsZero())

	require.NoError(t, c.SetBudget(ctx, "100"))
	require.NoError(t, c.AddExpense(ctx, "Coffee", "4.50", ""))
	require.NoError(t, c.AddExpense(ctx, "Bagel", "2.25", "2"))

	balance, err = c.GetBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Configured)
	assert.True(t, balance.TotalExpenses.Equal(decimal.RequireFromString("9")))
	assert.True(t, balance.Remaining.Equal(decimal.RequireFromString("91")))

	expenses, err := c.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Bagel", expenses[0].Item)
	assert.Equal(t, int32(2), expenses[0].Quantity)
	assert.True(t, expenses[0].LineTotal.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, int32(1), expenses[1].Quantity)

	require.NoError(t, c.Reset(ctx))
	expenses, err = c.ListExpenses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, expenses)
	assert.Empty(t, expenses)
}

func TestHTTPClient_ValidationError(t *testing.T) {
	srv := newLedgerServer(t)
	c := NewHTTPClient(srv.URL, "default", 5*time.Second)

	err := c.AddExpense(context.Background(), "Coffee", "-1", "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "cost", verr.Fields[0].Field)
	assert.False(t, IsTransport(err))
}

func TestHTTPClient_LedgersAreIndependent(t *testing.T) {
	srv := newLedgerServer(t)
	ctx := context.Background()
	home := NewHTTPClient(srv.URL, "home", 5*time.Second)
	trip := NewHTTPClient(srv.URL, "trip", 5*time.Second)

	require.NoError(t, home.SetBudget(ctx, "300"))

	balance, err := trip.GetBalance(ctx)
	require.NoError(t, err)
	assert.False(t, balance.Configured)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"title":"Internal Server Error","status":500,"detail":"Failed to get balance"}`))
	}))
	defer srv.Close()
	c := NewHTTPClient(srv.URL, "default", 5*time.Second)

	_, err := c.GetBalance(context.Background())

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Contains(t, err.Error(), "Failed to get balance")
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := NewHTTPClient(url, "default", time.Second)

	err := c.Reset(context.Background())

	assert.True(t, IsTransport(err))
}

func TestHTTPClient_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>proxy</html>"))
	}))
	defer srv.Close()
	c := NewHTTPClient(srv.URL, "default", time.Second)

	_, err := c.ListExpenses(context.Background())

	assert.True(t, IsTransport(err))
}
