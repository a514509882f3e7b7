package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

const (
	defaultAPIURL  = "https://api.anthropic.com/v1/messages"
	defaultTimeout = 120 * time.Second
	apiVersion     = "2023-06-01"
)

// Client talks to the Messages API for one fixed model.
type Client struct {
	apiKey string
	model  string
	apiURL string
	client *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: timeout},
	}
}

// SetTestTransport points the client at a test server's messages endpoint.
func (c *Client) SetTestTransport(url string) {
	c.apiURL = url
}

// SetBaseURL overrides the API host, e.g. for a gateway. The messages path is appended.
func (c *Client) SetBaseURL(baseURL string) {
	c.apiURL = baseURL + "/v1/messages"
}

func (c *Client) Model() string {
	return c.model
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Messages maps conversation turns onto the API's role vocabulary, which
// uses the same user/assistant names.
func Messages(turns []conversation.Turn) ([]Message, error) {
	out := make([]Message, 0, len(turns))
	for i, t := range turns {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		out = append(out, Message{Role: string(t.Role), Content: t.Content})
	}
	if len(out) == 0 || out[0].Role != string(conversation.RoleUser) {
		return nil, fmt.Errorf("conversation must open with a user turn")
	}
	return out, nil
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// text returns the first non-empty text block.
func (r response) text() (string, bool) {
	for _, b := range r.Content {
		if b.Type == "text" && b.Text != "" {
			return b.Text, true
		}
	}
	return "", false
}

// APIError is a non-200 reply from the API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Type, e.Message)
}

func decodeAPIError(status int, body []byte) *APIError {
	var env struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && env.Error.Type != "" {
		return &APIError{Status: status, Type: env.Error.Type, Message: env.Error.Message}
	}
	return &APIError{Status: status, Message: string(body)}
}

// Reply sends the whole conversation with persona as the system prompt and
// returns the assistant's text.
func (c *Client) Reply(ctx context.Context, persona string, turns []conversation.Turn, maxTokens int) (string, error) {
	messages, err := Messages(turns)
	if err != nil {
		return "", err
	}
	return c.Complete(ctx, persona, messages, maxTokens)
}

// Complete sends prepared messages and returns the text response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	resp, err := c.send(ctx, request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}
	text, ok := resp.text()
	if !ok {
		return "", fmt.Errorf("empty response content (stop_reason %q)", resp.StopReason)
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, body request) (response, error) {
	var out response

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, decodeAPIError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal response: %w", err)
	}
	return out, nil
}
