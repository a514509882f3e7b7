package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MikeSquared-Agency/solace/internal/chat"
	"github.com/MikeSquared-Agency/solace/internal/session"
)

type Server struct {
	router  *chi.Mux
	chat    *chat.Service
	backend string
	logger  *slog.Logger
	http    *http.Server
}

type Options struct {
	Port        int
	CORSOrigins []string
	Backend     string
}

func NewServer(opts Options, svc *chat.Service, cookies *session.Cookies, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:  router,
		chat:    svc,
		backend: opts.Backend,
		logger:  logger,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/solace/status", s.status)

	router.Group(func(r chi.Router) {
		r.Use(cookies.Middleware)
		r.Use(s.seedSession)
		r.Post("/chat", s.handleChat)
		r.Get("/chat-history", s.handleHistory)
		r.Post("/clear-chat", s.handleClear)
	})

	return s
}

// seedSession stores the seed conversation for an identity issued on this
// request, before any handler can reject the request. If the store cannot
// be reached the new cookie is withdrawn so the client stays cookieless.
func (s *Server) seedSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := session.FromContext(r.Context())
		if ok && ident.Fresh {
			if err := s.chat.Open(r.Context(), ident); err != nil {
				w.Header().Del("Set-Cookie")
				s.fail(w, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	p := s.chat.Provider()
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":    "solace",
		"provider": p.Name(),
		"model":    p.Model(),
		"backend":  s.backend,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
