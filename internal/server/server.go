// Package server is the HTTP transport for the chat engine. It validates
// requests, serializes turns per lead through the turn lock, and maps
// engine errors onto status codes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"groweasy-agent/internal/agent"
	commonerrors "groweasy-agent/internal/common/errors"
	"groweasy-agent/internal/common/logger"
)

// ChatService is the engine surface the transport needs.
type ChatService interface {
	Start(ctx context.Context, name, phone, source string) (*agent.StartResult, error)
	Continue(ctx context.Context, leadID, message string) (*agent.TurnResult, error)
}

// Locker serializes turns per lead.
type Locker interface {
	Acquire(ctx context.Context, leadID string) (bool, error)
	Release(ctx context.Context, leadID string)
}

type Server struct {
	engine      ChatService
	lock        Locker
	logger      logger.Logger
	development bool
}

func New(engine ChatService, lock Locker, development bool, log logger.Logger) *Server {
	return &Server{
		engine:      engine,
		lock:        lock,
		logger:      log.WithFields(map[string]interface{}{"component": "server"}),
		development: development,
	}
}

// Routes wires the chat endpoints onto a fresh mux. The /metrics endpoint is
// mounted by the caller alongside these.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/chat/start", s.handleStart)
	mux.HandleFunc("/api/chat/continue", s.handleContinue)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("GrowEasy lead qualification agent"))
}

type startRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, commonerrors.NewValidationError("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		s.writeError(w, commonerrors.NewValidationError("Name and phone are required"))
		return
	}

	result, err := s.engine.Start(r.Context(), req.Name, req.Phone, req.Source)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type continueRequest struct {
	LeadID  string `json:"leadId"`
	Message string `json:"message"`
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, commonerrors.NewValidationError("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.LeadID) == "" || strings.TrimSpace(req.Message) == "" {
		s.writeError(w, commonerrors.NewValidationError("Valid leadId and message required"))
		return
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(r.Context(), req.LeadID)
		if err != nil {
			s.logger.Warn("turn lock unavailable, proceeding without it", map[string]interface{}{
				"leadId": req.LeadID,
				"error":  err.Error(),
			})
		} else if !acquired {
			s.writeError(w, commonerrors.NewTurnInProgressError(req.LeadID))
			return
		} else {
			defer s.lock.Release(r.Context(), req.LeadID)
		}
	}

	result, err := s.engine.Continue(r.Context(), req.LeadID, req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	std := commonerrors.AsStandard(err)
	status := commonerrors.HTTPStatus(std)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", map[string]interface{}{
			"code":    string(std.Code),
			"details": std.Details,
		})
	}

	resp := errorResponse{
		Error: std.Message,
		Code:  string(std.Code),
	}
	// Diagnostic detail stays server-side outside development.
	if s.development {
		resp.Details = std.Details
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
