package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

// ErrNotFound is returned when a session id has no stored conversation.
var ErrNotFound = errors.New("conversation not found")

// Backend persists conversations keyed by session id.
// Append must add all given turns or none.
type Backend interface {
	Load(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	Save(ctx context.Context, sessionID string, turns []conversation.Turn) error
	Append(ctx context.Context, sessionID string, turns ...conversation.Turn) error
	Close()
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Options selects and configures a backend.
type Options struct {
	Kind        string
	DatabaseURL string
	BoltPath    string
}

// Open builds the backend named by opts.Kind.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Kind {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		pg, err := NewPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case BackendBolt:
		return NewBolt(opts.BoltPath)
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Kind)
	}
}
