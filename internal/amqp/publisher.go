package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/ledger/internal/websocket"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp091.Channel used by Publisher
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher forwards ledger change events to a RabbitMQ topic exchange.
// Routing keys are "<ledger>.<entity>.<event>", e.g. "default.expense.created".
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
}

var _ websocket.EventPublisher = (*Publisher)(nil)

// NewPublisher dials url and declares a durable topic exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", exchange).Msg("AMQP event publisher connected")

	return &Publisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// RoutingKey returns the routing key used for event
func RoutingKey(event websocket.Event) string {
	return fmt.Sprintf("%s.%s", event.LedgerID, event.Type)
}

// Publish sends the event. Failures are logged, never returned: the write
// that produced the event has already been committed.
func (p *Publisher) Publish(event websocket.Event) {
	body, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("Failed to serialize AMQP event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(event),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		log.Warn().
			Err(err).
			Str("ledger_id", event.LedgerID).
			Str("event_type", event.Type).
			Msg("Failed to publish AMQP event")
		return
	}

	log.Debug().
		Str("ledger_id", event.LedgerID).
		Str("routing_key", RoutingKey(event)).
		Msg("Published AMQP event")
}

// Close closes the channel and connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
