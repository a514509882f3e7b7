package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/solace/internal/chat"
	"github.com/MikeSquared-Agency/solace/internal/session"
	"github.com/MikeSquared-Agency/solace/internal/store"
)

const (
	terminalGreeting = "Chatbot: Hello! I'm here to listen and offer support. How are you feeling today? (Type 'exit' to quit)"
	terminalFarewell = "Chatbot: Take care of yourself. Remember, I'm here if you need someone to talk to. 💙"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the support bot in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			llm, err := newProvider(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			backend := store.NewMemory()
			defer backend.Close()

			svc := newService(llm, backend, false, nil)
			return runTerminal(cmd.Context(), svc, os.Stdin, cmd.OutOrStdout())
		},
	}
}

// runTerminal reads one message per line until EOF or "exit"/"quit".
// A failed exchange is reported and the loop continues.
func runTerminal(ctx context.Context, svc *chat.Service, in io.Reader, out io.Writer) error {
	ident := session.Identity{ID: uuid.NewString(), Fresh: true}
	scanner := bufio.NewScanner(in)

	fmt.Fprintf(out, "%s\n\n", terminalGreeting)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintf(out, "\n%s\n", terminalFarewell)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, terminalFarewell)
			return nil
		case "":
			continue
		}

		reply, err := svc.Exchange(ctx, ident, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(out, "\nError: %v\n\n", err)
			continue
		}
		ident.Fresh = false
		fmt.Fprintf(out, "\nChatbot: %s\n\n", reply)
	}
}
