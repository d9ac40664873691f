package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/ledger/internal/domain"
	"github.com/dafibh/ledger/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BalanceReader reads the aggregates sent to a new subscriber
type BalanceReader interface {
	GetBalance(ctx context.Context, ledgerID string) (*domain.Balance, error)
}

// WebSocketHandler upgrades subscribers of a ledger's change events
type WebSocketHandler struct {
	hub            *websocket.Hub
	balances       BalanceReader
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, balances BalanceReader, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		balances:       balances,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Same-origin and non-browser clients send no Origin header
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles GET /api/v1/ledgers/:ledger/ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	id := ledgerID(c)
	if err := domain.ValidateLedgerID(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid ledger id")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	sub := websocket.NewConn(conn, id)
	// Subscribed before the read, so no change after the snapshot goes unannounced.
	h.hub.Subscribe(sub)
	go sub.Serve(h.hub)

	balance, err := h.balances.GetBalance(c.Request().Context(), id)
	if err != nil {
		log.Error().Err(err).Str("ledger_id", id).Msg("Failed to read subscriber snapshot")
		h.hub.Unsubscribe(sub)
		sub.Close()
		return nil
	}
	data, err := websocket.LedgerSnapshot(id, toBalanceResponse(balance)).ToJSON()
	if err == nil {
		err = sub.Send(data)
	}
	if err != nil {
		log.Warn().Err(err).Str("ledger_id", id).Msg("Failed to queue subscriber snapshot")
	}

	log.Info().
		Str("ledger_id", id).
		Str("subscriber_id", sub.ID()).
		Msg("Ledger subscriber connected")

	return nil
}
