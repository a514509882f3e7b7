package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
)

func sampleTurns() []conversation.Turn {
	return append(conversation.NewConversation(), conversation.Turn{Role: conversation.RoleUser, Content: "I feel anxious"})
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), Options{Name: Groq}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Options{Name: "cohere", APIKey: "k"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_DefaultModels(t *testing.T) {
	for _, name := range []string{Groq, OpenAI, Anthropic} {
		p, err := New(context.Background(), Options{Name: name, APIKey: "k"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("expected name %q, got %q", name, p.Name())
		}
		if p.Model() != DefaultModel(name) {
			t.Errorf("%s: expected default model %q, got %q", name, DefaultModel(name), p.Model())
		}
	}
	if DefaultModel(Groq) != "llama3-8b-8192" {
		t.Errorf("unexpected groq default %q", DefaultModel(Groq))
	}
}

func TestOpenAI_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Model != "llama3-8b-8192" {
			t.Errorf("expected groq default model, got %q", body.Model)
		}
		if len(body.Messages) != 4 {
			t.Fatalf("expected persona + 3 turns, got %d messages", len(body.Messages))
		}
		if body.Messages[0].Role != "system" || body.Messages[0].Content != "Be gentle." {
			t.Errorf("expected persona system message, got %+v", body.Messages[0])
		}
		if body.Messages[2].Role != "assistant" || body.Messages[3].Content != "I feel anxious" {
			t.Errorf("unexpected role mapping: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama3-8b-8192",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  Let's take a slow breath.  "},
			}},
		})
	}))
	defer server.Close()

	p, err := New(context.Background(), Options{
		Name: Groq, APIKey: "test-key", BaseURL: server.URL + "/", Persona: "Be gentle.", Timeout: time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	reply, err := p.Generate(context.Background(), sampleTurns())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "Let's take a slow breath." {
		t.Errorf("expected trimmed reply, got %q", reply)
	}
}

func TestOpenAI_GenerateError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	p, _ := New(context.Background(), Options{Name: OpenAI, APIKey: "k", BaseURL: server.URL + "/", Timeout: time.Second})
	if _, err := p.Generate(context.Background(), sampleTurns()); err == nil {
		t.Fatal("expected error on 429")
	}
	if calls != 1 {
		t.Errorf("expected no retries, got %d calls", calls)
	}
}

func TestOpenAI_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "x", "object": "chat.completion", "created": 1, "model": "m",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": "   "},
			}},
		})
	}))
	defer server.Close()

	p, _ := New(context.Background(), Options{Name: OpenAI, APIKey: "k", BaseURL: server.URL + "/", Timeout: time.Second})
	_, err := p.Generate(context.Background(), sampleTurns())
	if !errors.Is(err, ErrEmptyReply) {
		t.Errorf("expected ErrEmptyReply, got %v", err)
	}
}

func TestGemini_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body struct {
			Contents []struct {
				Role string `json:"role"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Contents) != 3 || body.Contents[1].Role != "model" {
			t.Errorf("expected assistant mapped to model, got %+v", body.Contents)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "You're not alone."}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	p, err := New(context.Background(), Options{Name: Gemini, APIKey: "k", BaseURL: server.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	reply, err := p.Generate(context.Background(), sampleTurns())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "You're not alone." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestToGeminiContents(t *testing.T) {
	contents := toGeminiContents(sampleTurns())
	want := []string{"user", "model", "user"}
	for i, c := range contents {
		if c.Role != want[i] {
			t.Errorf("content %d: expected role %q, got %q", i, want[i], c.Role)
		}
	}
}

func TestAnthropic_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var body struct {
			System   string `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.System != "Be gentle." {
			t.Errorf("expected persona as system, got %q", body.System)
		}
		if len(body.Messages) != 3 {
			t.Errorf("expected 3 messages, got %d", len(body.Messages))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": "I'm listening."}},
		})
	}))
	defer server.Close()

	p, _ := New(context.Background(), Options{Name: Anthropic, APIKey: "k", BaseURL: server.URL, Persona: "Be gentle."})
	reply, err := p.Generate(context.Background(), sampleTurns())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "I'm listening." {
		t.Errorf("unexpected reply %q", reply)
	}
}
