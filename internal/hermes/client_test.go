package hermes

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestClose_WaitsForClosedConnection(t *testing.T) {
	// Nothing listens on port 1; the client starts in reconnecting state.
	client, err := NewClient(context.Background(), "nats://127.0.0.1:1", "", slog.Default())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	done := make(chan struct{})
	go func() {
		client.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * drainTimeout):
		t.Fatal("Close did not return")
	}
	if !client.conn.IsClosed() {
		t.Error("connection should be closed after Close returns")
	}
	select {
	case <-client.closed:
	default:
		t.Error("closed handler should have fired before Close returned")
	}

	// A second Close must not block or panic.
	client.Close()
}
