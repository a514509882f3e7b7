package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
	"github.com/MikeSquared-Agency/solace/internal/store"
)

// ErrUnavailable means a presented session id could not be resolved to a
// stored conversation, or the backend could not be reached. It is distinct
// from a brand-new session, which is always seeded.
var ErrUnavailable = errors.New("session unavailable")

// Identity is the session key resolved for one request.
// Fresh is true when the id was issued during this request.
type Identity struct {
	ID    string
	Fresh bool
}

// Manager owns the conversation lifecycle on top of a store.Backend.
type Manager struct {
	backend       store.Backend
	reseedUnknown bool
	logger        *slog.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(backend store.Backend, reseedUnknown bool, logger *slog.Logger) *Manager {
	return &Manager{
		backend:       backend,
		reseedUnknown: reseedUnknown,
		logger:        logger,
		locks:         make(map[string]*keyLock),
	}
}

// Lock serialises work on one session id and returns the matching unlock.
// Distinct ids never contend.
func (m *Manager) Lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// GetOrCreate returns the stored conversation, seeding it for fresh identities.
// A stored conversation that fails conversation.Check is reported as unavailable.
func (m *Manager) GetOrCreate(ctx context.Context, ident Identity) ([]conversation.Turn, error) {
	turns, err := m.backend.Load(ctx, ident.ID)
	if err == nil {
		if err := conversation.Check(turns); err != nil {
			m.logger.Warn("stored conversation rejected", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return turns, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ident.Fresh && !m.reseedUnknown {
		return nil, fmt.Errorf("%w: no conversation for session", ErrUnavailable)
	}

	turns = conversation.NewConversation()
	if err := m.backend.Save(ctx, ident.ID, turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.logger.Debug("conversation seeded", "fresh", ident.Fresh)
	return conversation.Clone(turns), nil
}

// AppendExchange persists a completed user/assistant pair in one backend write.
func (m *Manager) AppendExchange(ctx context.Context, id, userText, assistantText string) error {
	err := m.backend.Append(ctx, id,
		conversation.Turn{Role: conversation.RoleUser, Content: userText},
		conversation.Turn{Role: conversation.RoleAssistant, Content: assistantText},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ReadHistory returns the turns after the seed. A fresh identity is seeded
// here too, so the cookie it was issued with stays valid on the next request.
func (m *Manager) ReadHistory(ctx context.Context, ident Identity) ([]conversation.Turn, error) {
	turns, err := m.GetOrCreate(ctx, ident)
	if err != nil {
		return nil, err
	}
	return conversation.History(turns), nil
}

// Clear resets the conversation to a fresh seed. It also revives unknown sessions.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if err := m.backend.Save(ctx, id, conversation.NewConversation()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
