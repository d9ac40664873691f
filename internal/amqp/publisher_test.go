package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dafibh/ledger/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	calls    int
	err      error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.calls++
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "default.expense.created", RoutingKey(websocket.ExpenseCreated("default", nil)))
	assert.Equal(t, "home.ledger.reset", RoutingKey(websocket.LedgerReset("home")))
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "ledger.events"}

	p.Publish(websocket.BudgetUpdated("default", map[string]interface{}{"amount": "500.00"}))

	require.Equal(t, 1, ch.calls)
	assert.Equal(t, "ledger.events", ch.exchange)
	assert.Equal(t, "default.budget.updated", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "budget.updated", decoded["type"])
}

func TestPublisher_PublishErrorIsSwallowed(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &Publisher{channel: ch, exchange: "ledger.events"}

	assert.NotPanics(t, func() {
		p.Publish(websocket.LedgerReset("default"))
	})
	assert.Equal(t, 1, ch.calls)
}
