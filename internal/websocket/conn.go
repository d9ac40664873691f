package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// queueSize bounds the events a subscriber may have outstanding
	// before the hub drops it.
	queueSize = 64
)

// Conn is a websocket subscriber of one ledger. The hub queues encoded
// events with Send; Serve writes them to the peer.
type Conn struct {
	id       string
	ledgerID string
	ws       *websocket.Conn
	queue    chan []byte
	done     chan struct{}

	mu      sync.Mutex
	closed  bool
	lagging bool
}

// NewConn wraps an upgraded connection subscribed to ledgerID
func NewConn(ws *websocket.Conn, ledgerID string) *Conn {
	return &Conn{
		id:       uuid.New().String(),
		ledgerID: ledgerID,
		ws:       ws,
		queue:    make(chan []byte, queueSize),
		done:     make(chan struct{}),
	}
}

// ID identifies the subscriber in logs
func (c *Conn) ID() string {
	return c.id
}

// LedgerID returns the ledger the subscriber follows
func (c *Conn) LedgerID() string {
	return c.ledgerID
}

// Send queues data without blocking. A full queue marks the subscriber as
// lagging and returns ErrSubscriberBehind.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSubscriberClosed
	}
	select {
	case c.queue <- data:
		return nil
	default:
		c.lagging = true
		return ErrSubscriberBehind
	}
}

// Close stops Serve. It may be called any number of times.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// closeFrame tells the peer why the stream ended. A lagging subscriber is
// asked to reconnect, which gets it a fresh snapshot.
func (c *Conn) closeFrame() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lagging {
		return websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind")
	}
	return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
}

// Serve writes queued events and keepalive pings until the peer goes away
// or the subscriber is closed, then leaves hub. It blocks.
func (c *Conn) Serve(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Unsubscribe(c)
		c.Close()
		c.ws.Close()
	}()

	go c.discardInbound()

	for {
		select {
		case data := <-c.queue:
			if err := c.write(websocket.TextMessage, data); err != nil {
				log.Warn().
					Err(err).
					Str("subscriber_id", c.id).
					Str("ledger_id", c.ledgerID).
					Msg("Event delivery failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.write(websocket.CloseMessage, c.closeFrame())
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// discardInbound keeps the read side alive for pongs and close frames.
// Subscribers never send commands, so message bodies are skipped unread.
func (c *Conn) discardInbound() {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("subscriber_id", c.id).
					Str("ledger_id", c.ledgerID).
					Msg("Subscriber connection lost")
			}
			return
		}
	}
}
