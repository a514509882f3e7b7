package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/solace/internal/conversation"
	"github.com/MikeSquared-Agency/solace/internal/store"
)

type echoProvider struct {
	failOn string
	seen   [][]conversation.Turn
}

func (p *echoProvider) Name() string  { return "echo" }
func (p *echoProvider) Model() string { return "echo-1" }

func (p *echoProvider) Generate(_ context.Context, turns []conversation.Turn) (string, error) {
	p.seen = append(p.seen, conversation.Clone(turns))
	last := turns[len(turns)-1].Content
	if last == p.failOn {
		return "", errors.New("network unreachable")
	}
	return "echo: " + last, nil
}

func TestRunTerminal_ConversationAndExit(t *testing.T) {
	p := &echoProvider{}
	svc := newService(p, store.NewMemory(), false, nil)

	in := strings.NewReader("I feel anxious\n\nwork is hard\nexit\nnever read\n")
	var out bytes.Buffer
	if err := runTerminal(context.Background(), svc, in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{terminalGreeting, "Chatbot: echo: I feel anxious", "Chatbot: echo: work is hard", terminalFarewell} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "never read") {
		t.Error("input after exit must not be processed")
	}
	if len(p.seen) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(p.seen))
	}
	if n := len(p.seen[1]); n != conversation.SeedLen+3 {
		t.Errorf("second call should carry the first exchange, got %d turns", n)
	}
}

func TestRunTerminal_ErrorContinues(t *testing.T) {
	p := &echoProvider{failOn: "boom"}
	svc := newService(p, store.NewMemory(), false, nil)

	in := strings.NewReader("hello\nboom\nagain\nQUIT\n")
	var out bytes.Buffer
	if err := runTerminal(context.Background(), svc, in, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Error: generation failed: network unreachable") {
		t.Errorf("expected error line, got:\n%s", out.String())
	}
	last := p.seen[len(p.seen)-1]
	if n := len(last); n != conversation.SeedLen+3 {
		t.Errorf("failed turn must not be kept, got %d turns in last prompt", n)
	}
}

func TestRunTerminal_EOF(t *testing.T) {
	svc := newService(&echoProvider{}, store.NewMemory(), false, nil)
	var out bytes.Buffer
	if err := runTerminal(context.Background(), svc, strings.NewReader(""), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), terminalFarewell) {
		t.Error("expected farewell on EOF")
	}
}
