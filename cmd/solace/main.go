package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/solace/internal/chat"
	"github.com/MikeSquared-Agency/solace/internal/config"
	"github.com/MikeSquared-Agency/solace/internal/provider"
	"github.com/MikeSquared-Agency/solace/internal/session"
	"github.com/MikeSquared-Agency/solace/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "solace",
		Short:         "Mental-health support chat proxy for hosted LLM providers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newChatCmd())

	if err := root.Execute(); err != nil {
		slog.Error("solace failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration; a missing provider key is fatal.
func loadConfig() (config.Config, error) {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newProvider(ctx context.Context, cfg config.Config) (provider.Provider, error) {
	llm, err := provider.New(ctx, provider.Options{
		Name:      cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		Persona:   cfg.Persona,
		Timeout:   cfg.ProviderTimeout,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	slog.Info("provider ready", "provider", llm.Name(), "model", llm.Model(), "persona", cfg.Persona != "")
	return llm, nil
}

func newService(llm provider.Provider, backend store.Backend, reseed bool, events chat.Publisher) *chat.Service {
	mgr := session.NewManager(backend, reseed, slog.Default())
	return chat.New(mgr, llm, events, slog.Default())
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
