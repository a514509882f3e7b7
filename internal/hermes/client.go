package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectRegistered = "solace.agent.registered"
	SubjectExchanged  = "solace.chat.exchanged"
	SubjectCleared    = "solace.chat.cleared"
)

// ExchangeEvent is published after a successful chat exchange.
// It never carries message text.
type ExchangeEvent struct {
	SessionHash string `json:"session_hash"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	HistoryLen  int    `json:"history_len"`
	LatencyMS   int64  `json:"latency_ms"`
	Timestamp   string `json:"timestamp"`
}

// ClearedEvent is published when a conversation is reset to its seed.
type ClearedEvent struct {
	SessionHash string `json:"session_hash"`
	Timestamp   string `json:"timestamp"`
}

const drainTimeout = 5 * time.Second

type Client struct {
	conn   *nats.Conn
	closed chan struct{}
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	closed := make(chan struct{})
	opts := []nats.Option{
		nats.Name("solace"),
		nats.DrainTimeout(drainTimeout),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(closed)
		}),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, closed: closed, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Close flushes pending events, drains the connection and blocks until the
// connection is closed or drainTimeout passes.
func (c *Client) Close() {
	if c.conn.IsConnected() {
		if err := c.conn.FlushTimeout(drainTimeout); err != nil {
			c.logger.Warn("nats flush failed", "error", err)
		}
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
	select {
	case <-c.closed:
	case <-time.After(drainTimeout):
		c.logger.Warn("nats drain timed out")
		c.conn.Close()
	}
}
