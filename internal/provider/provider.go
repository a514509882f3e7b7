// Package provider adapts third-party text-generation APIs to a single
// Generate call over conversation turns. Role names are translated to each
// provider's vocabulary here and nowhere else.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

const (
	Groq      = "groq"
	OpenAI    = "openai"
	Gemini    = "gemini"
	Anthropic = "anthropic"
)

const groqBaseURL = "https://api.groq.com/openai/v1/"

// ErrEmptyReply is returned when a provider answers without any text.
var ErrEmptyReply = errors.New("provider returned no text")

// Provider generates the next assistant reply for a conversation.
type Provider interface {
	Generate(ctx context.Context, turns []conversation.Turn) (string, error)
	Name() string
	Model() string
}

// Options configure a provider. Model and BaseURL fall back to per-provider defaults.
type Options struct {
	Name      string
	APIKey    string
	Model     string
	BaseURL   string
	Persona   string
	Timeout   time.Duration
	MaxTokens int
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(name string) string {
	switch name {
	case Groq:
		return "llama3-8b-8192"
	case OpenAI:
		return "gpt-4o-mini"
	case Gemini:
		return "gemini-1.5-flash"
	case Anthropic:
		return "claude-sonnet-4-20250514"
	default:
		return ""
	}
}

// New builds the provider named by opts.Name.
func New(ctx context.Context, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", opts.Name)
	}
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Name)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	switch opts.Name {
	case Groq:
		if opts.BaseURL == "" {
			opts.BaseURL = groqBaseURL
		}
		return newOpenAI(opts), nil
	case OpenAI:
		return newOpenAI(opts), nil
	case Gemini:
		return newGemini(ctx, opts)
	case Anthropic:
		return newAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}
}

func cleanReply(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
