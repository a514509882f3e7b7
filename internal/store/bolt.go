package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

var conversationsBucket = []byte("conversations")

// Bolt stores each conversation as a JSON array under its session id.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt backend requires a file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() {
	_ = b.db.Close()
}

func (b *Bolt) Load(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	var turns []conversation.Turn
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(sessionID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &turns)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return turns, nil
}

func (b *Bolt) Save(_ context.Context, sessionID string, turns []conversation.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Put([]byte(sessionID), raw)
	})
}

// Append reads, extends and rewrites the entry inside one write transaction.
func (b *Bolt) Append(_ context.Context, sessionID string, turns ...conversation.Turn) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(conversationsBucket)
		v := bkt.Get([]byte(sessionID))
		if v == nil {
			return ErrNotFound
		}
		var existing []conversation.Turn
		if err := json.Unmarshal(v, &existing); err != nil {
			return fmt.Errorf("decode conversation: %w", err)
		}
		raw, err := json.Marshal(append(existing, turns...))
		if err != nil {
			return fmt.Errorf("encode conversation: %w", err)
		}
		return bkt.Put([]byte(sessionID), raw)
	})
}
