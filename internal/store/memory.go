package store

import (
	"context"
	"sync"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

// Memory keeps conversations in a process-local map. Turn slices are cloned on
// the way in and out so callers never alias stored state.
type Memory struct {
	mu    sync.RWMutex
	convs map[string][]conversation.Turn
}

func NewMemory() *Memory {
	return &Memory{convs: make(map[string][]conversation.Turn)}
}

func (m *Memory) Load(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns, ok := m.convs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return conversation.Clone(turns), nil
}

func (m *Memory) Save(_ context.Context, sessionID string, turns []conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[sessionID] = conversation.Clone(turns)
	return nil
}

func (m *Memory) Append(_ context.Context, sessionID string, turns ...conversation.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.convs[sessionID]
	if !ok {
		return ErrNotFound
	}
	m.convs[sessionID] = append(existing, turns...)
	return nil
}

func (m *Memory) Close() {}

