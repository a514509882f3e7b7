package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
	"github.com/MikeSquared-Agency/solace/internal/hermes"
	"github.com/MikeSquared-Agency/solace/internal/provider"
	"github.com/MikeSquared-Agency/solace/internal/session"
)

var (
	// ErrMissingInput is returned for an empty or absent message.
	ErrMissingInput = errors.New("Message is required")
	// ErrGenerationFailed wraps any provider failure.
	ErrGenerationFailed = errors.New("generation failed")
)

// Publisher receives lifecycle events. hermes.Client implements it.
type Publisher interface {
	Publish(subject string, data any) error
}

// Service runs chat exchanges against a provider and a session manager.
// It holds no conversation state of its own.
type Service struct {
	sessions *session.Manager
	llm      provider.Provider
	events   Publisher
	logger   *slog.Logger
}

// New returns a Service. events may be nil.
func New(sessions *session.Manager, llm provider.Provider, events Publisher, logger *slog.Logger) *Service {
	return &Service{sessions: sessions, llm: llm, events: events, logger: logger}
}

func (s *Service) Provider() provider.Provider {
	return s.llm
}

// Exchange appends message to the caller's conversation, asks the provider
// for a reply and persists the pair. On provider failure nothing is stored.
func (s *Service) Exchange(ctx context.Context, ident session.Identity, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrMissingInput
	}

	unlock := s.sessions.Lock(ident.ID)
	defer unlock()

	turns, err := s.sessions.GetOrCreate(ctx, ident)
	if err != nil {
		return "", err
	}
	working := append(turns, conversation.Turn{Role: conversation.RoleUser, Content: message})

	start := time.Now()
	reply, err := s.llm.Generate(ctx, working)
	latency := time.Since(start)
	if err != nil {
		s.logger.Error("generation failed",
			"session", sessionHash(ident.ID),
			"provider", s.llm.Name(),
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if err := s.sessions.AppendExchange(ctx, ident.ID, message, reply); err != nil {
		return "", err
	}

	historyLen := len(working) + 1 - conversation.SeedLen
	s.logger.Info("chat exchange complete",
		"session", sessionHash(ident.ID),
		"provider", s.llm.Name(),
		"history_len", historyLen,
		"latency_ms", latency.Milliseconds(),
	)
	s.publish(hermes.SubjectExchanged, hermes.ExchangeEvent{
		SessionHash: sessionHash(ident.ID),
		Provider:    s.llm.Name(),
		Model:       s.llm.Model(),
		HistoryLen:  historyLen,
		LatencyMS:   latency.Milliseconds(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return reply, nil
}

// Open makes sure the caller has a stored conversation, seeding one for a
// fresh identity. Requests that fail before reaching Exchange still leave
// the issued session usable.
func (s *Service) Open(ctx context.Context, ident session.Identity) error {
	unlock := s.sessions.Lock(ident.ID)
	defer unlock()

	_, err := s.sessions.GetOrCreate(ctx, ident)
	return err
}

// History returns the caller's turns, excluding the seed.
func (s *Service) History(ctx context.Context, ident session.Identity) ([]conversation.Turn, error) {
	unlock := s.sessions.Lock(ident.ID)
	defer unlock()

	return s.sessions.ReadHistory(ctx, ident)
}

// Clear resets the caller's conversation to the seed.
func (s *Service) Clear(ctx context.Context, ident session.Identity) error {
	unlock := s.sessions.Lock(ident.ID)
	defer unlock()

	if err := s.sessions.Clear(ctx, ident.ID); err != nil {
		return err
	}
	s.logger.Info("conversation cleared", "session", sessionHash(ident.ID))
	s.publish(hermes.SubjectCleared, hermes.ClearedEvent{
		SessionHash: sessionHash(ident.ID),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Service) publish(subject string, evt any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, evt); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// sessionHash keeps raw session ids out of logs and events.
func sessionHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}
