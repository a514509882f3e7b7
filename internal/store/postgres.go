package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

// Migrate creates the conversations table if it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			session_id TEXT PRIMARY KEY,
			turns      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("migrate conversations: %w", err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT turns FROM conversations WHERE session_id = $1`,
		sessionID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var turns []conversation.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return turns, nil
}

func (s *Postgres) Save(ctx context.Context, sessionID string, turns []conversation.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversations (session_id, turns, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (session_id) DO UPDATE SET turns = EXCLUDED.turns, updated_at = now()`,
		sessionID, raw,
	)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// Append concatenates turns onto the stored array in a single statement,
// so overlapping writers on one session cannot drop each other's turns.
func (s *Postgres) Append(ctx context.Context, sessionID string, turns ...conversation.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE conversations SET turns = turns || $2::jsonb, updated_at = now()
		WHERE session_id = $1`,
		sessionID, raw,
	)
	if err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
