package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/solace/internal/api"
	"github.com/MikeSquared-Agency/solace/internal/chat"
	"github.com/MikeSquared-Agency/solace/internal/hermes"
	"github.com/MikeSquared-Agency/solace/internal/session"
	"github.com/MikeSquared-Agency/solace/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("solace starting", "port", cfg.Port, "backend", cfg.SessionBackend)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	llm, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	// Session store
	backend, err := store.Open(ctx, store.Options{
		Kind:        cfg.SessionBackend,
		DatabaseURL: cfg.DatabaseURL,
		BoltPath:    cfg.BoltPath,
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer backend.Close()
	slog.Info("session store ready", "backend", cfg.SessionBackend)

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET not set, session cookies are signed with an insecure default")
	}
	cookies := session.NewCookies(cfg.SessionSecret, cfg.CookieMaxAge, cfg.CookieSecure)

	// NATS/Hermes (optional)
	var events chat.Publisher
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer hermesClient.Close()
		events = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without chat events")
	}

	svc := newService(llm, backend, cfg.ReseedUnknown, events)

	srv := api.NewServer(api.Options{
		Port:        cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		Backend:     cfg.SessionBackend,
	}, svc, cookies, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"provider":  llm.Name(),
			"model":     llm.Model(),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("solace ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	slog.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	slog.Info("solace stopped")
	return nil
}
