package provider

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/solace/internal/anthropic"
	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

type anthropicChat struct {
	persona   string
	maxTokens int
	client    *anthropic.Client
}

func newAnthropic(opts Options) *anthropicChat {
	c := anthropic.NewClient(opts.APIKey, opts.Model, opts.Timeout)
	if opts.BaseURL != "" {
		c.SetBaseURL(opts.BaseURL)
	}
	return &anthropicChat{persona: opts.Persona, maxTokens: opts.MaxTokens, client: c}
}

func (p *anthropicChat) Name() string  { return Anthropic }
func (p *anthropicChat) Model() string { return p.client.Model() }

func (p *anthropicChat) Generate(ctx context.Context, turns []conversation.Turn) (string, error) {
	text, err := p.client.Reply(ctx, p.persona, turns, p.maxTokens)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	return cleanReply(text)
}
