package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MikeSquared-Agency/solace/internal/chat"
	"github.com/MikeSquared-Agency/solace/internal/conversation"
	"github.com/MikeSquared-Agency/solace/internal/session"
)

// ChatRequest is the POST /chat body. History is accepted for compatibility
// with clients that echo their local transcript; the server copy is authoritative.
type ChatRequest struct {
	Message string            `json:"message"`
	History []json.RawMessage `json:"history,omitempty"`
}

type ChatResponse struct {
	Content string `json:"content"`
}

type HistoryResponse struct {
	History []conversation.Turn `json:"history"`
}

type ClearResponse struct {
	Status  string              `json:"status"`
	History []conversation.Turn `json:"history"`
}

// handleChat handles POST /chat
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ident, _ := session.FromContext(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if len(req.History) > 0 {
		s.logger.Debug("ignoring client-supplied history", "turns", len(req.History))
	}

	reply, err := s.chat.Exchange(r.Context(), ident, req.Message)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Content: reply})
}

// handleHistory handles GET /chat-history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ident, _ := session.FromContext(r.Context())

	history, err := s.chat.History(r.Context(), ident)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{History: history})
}

// handleClear handles POST /clear-chat
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	ident, _ := session.FromContext(r.Context())

	if err := s.chat.Clear(r.Context(), ident); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClearResponse{
		Status:  "Chat history cleared",
		History: []conversation.Turn{},
	})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnavailable):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
