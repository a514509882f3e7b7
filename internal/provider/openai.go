package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

// openAIChat talks to any OpenAI-compatible Chat Completions endpoint (OpenAI, Groq).
type openAIChat struct {
	name    string
	model   string
	persona string
	client  openai.Client
}

func newOpenAI(opts Options) *openAIChat {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &openAIChat{
		name:    opts.Name,
		model:   opts.Model,
		persona: opts.Persona,
		client:  openai.NewClient(reqOpts...),
	}
}

func (p *openAIChat) Name() string  { return p.name }
func (p *openAIChat) Model() string { return p.model }

func (p *openAIChat) Generate(ctx context.Context, turns []conversation.Turn) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: toOpenAIMessages(p.persona, turns),
	})
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices returned", p.name)
	}
	return cleanReply(completion.Choices[0].Message.Content)
}

func toOpenAIMessages(persona string, turns []conversation.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if persona != "" {
		messages = append(messages, openai.SystemMessage(persona))
	}
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleUser:
			messages = append(messages, openai.UserMessage(t.Content))
		case conversation.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		}
	}
	return messages
}
