package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

type gemini struct {
	model   string
	persona string
	client  *genai.Client
}

func newGemini(ctx context.Context, opts Options) (*gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &gemini{model: opts.Model, persona: opts.Persona, client: client}, nil
}

func (p *gemini) Name() string  { return Gemini }
func (p *gemini) Model() string { return p.model }

func (p *gemini) Generate(ctx context.Context, turns []conversation.Turn) (string, error) {
	var cfg *genai.GenerateContentConfig
	if p.persona != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: p.persona}}},
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, toGeminiContents(turns), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return cleanReply(sb.String())
}

// toGeminiContents maps assistant turns to Gemini's "model" role.
func toGeminiContents(turns []conversation.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == conversation.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}
	return contents
}
