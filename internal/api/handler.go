package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
	"github.com/procampo/whatsapp-bridge/internal/middleware"
)

// apiRequestsPerMinute caps callers of /api per client IP
const apiRequestsPerMinute = 300

// HandoffService is the agent console surface exposed over HTTP
type HandoffService interface {
	ListSessions() []domain.SessionView
	GetSession(slot int) (domain.SessionView, error)
	Reply(ctx context.Context, target domain.Target, text string) (domain.SessionView, error)
	Close(ctx context.Context, target domain.Target, notify bool) (domain.SessionView, bool, error)
	ExecuteCommand(ctx context.Context, text string) string
	AuditTrail(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error)
}

// Server provides the local HTTP API used by the handoff MCP tool
type Server struct {
	svc    HandoffService
	log    zerolog.Logger
	server *http.Server
}

// Session is the JSON form of a slotted handoff session
type Session struct {
	Slot           int              `json:"slot"`
	TicketCode     string           `json:"ticket_code"`
	CustomerID     string           `json:"customer_id"`
	Name           string           `json:"name"`
	Active         bool             `json:"active"`
	UnreadCount    int              `json:"unread_count"`
	Pending        []PendingMessage `json:"pending"`
	StartedAt      time.Time        `json:"started_at"`
	LastCustomerAt time.Time        `json:"last_customer_at"`
	LastAgentAt    *time.Time       `json:"last_agent_at,omitempty"`
}

// PendingMessage is an unanswered customer message
type PendingMessage struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// ReplyRequest is the body of POST /api/sessions/{slot}/reply
type ReplyRequest struct {
	Text string `json:"text"`
}

// CloseRequest is the body of POST /api/sessions/{slot}/close
type CloseRequest struct {
	Notify bool `json:"notify"`
}

// CloseResponse reports whether a handoff was actually closed
type CloseResponse struct {
	Closed  bool    `json:"closed"`
	Session Session `json:"session"`
}

// CommandRequest is the body of POST /api/command
type CommandRequest struct {
	Text string `json:"text"`
}

// CommandResponse is the reply the agent would have received on WhatsApp
type CommandResponse struct {
	Reply string `json:"reply"`
}

// NewServer creates a new API server
func NewServer(svc HandoffService, log zerolog.Logger) *Server {
	return &Server{
		svc: svc,
		log: log.With().Str("component", "API").Logger(),
	}
}

// Handler builds the API routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.Recoverer(s.log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(apiRequestsPerMinute, time.Minute))
		r.Get("/sessions", s.handleListSessions)
		r.Route("/sessions/{slot}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/reply", s.handleReply)
			r.Post("/close", s.handleClose)
		})
		r.Post("/command", s.handleCommand)
		r.Get("/audit/{ticket}", s.handleAudit)
	})

	return r
}

// Start serves on addr. Blocks until Stop.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============ Session Handlers ============

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	views := s.svc.ListSessions()
	sessions := make([]Session, len(views))
	for i, v := range views {
		sessions[i] = ToSession(v)
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.slotParam(w, r)
	if !ok {
		return
	}
	view, err := s.svc.GetSession(slot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ToSession(view))
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.slotParam(w, r)
	if !ok {
		return
	}
	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.writeStatus(w, http.StatusBadRequest, "text is required")
		return
	}

	view, err := s.svc.Reply(r.Context(), domain.Target{Slot: slot}, req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ToSession(view))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.slotParam(w, r)
	if !ok {
		return
	}
	var req CloseRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeStatus(w, http.StatusBadRequest, "invalid body")
			return
		}
	}

	view, closed, err := s.svc.Close(r.Context(), domain.Target{Slot: slot}, req.Notify)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, CloseResponse{Closed: closed, Session: ToSession(view)})
}

// ============ Command Handler ============

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		s.writeStatus(w, http.StatusBadRequest, "text is required")
		return
	}
	reply := s.svc.ExecuteCommand(r.Context(), req.Text)
	s.writeJSON(w, http.StatusOK, CommandResponse{Reply: reply})
}

// ============ Audit Handler ============

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := s.svc.AuditTrail(r.Context(), chi.URLParam(r, "ticket"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []*domain.AuditEvent{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ============ Helpers ============

// ToSession converts a session snapshot to its JSON form
func ToSession(v domain.SessionView) Session {
	out := Session{
		Slot:           v.Slot,
		TicketCode:     v.TicketCode,
		CustomerID:     v.CustomerID,
		Name:           v.Name(),
		Active:         v.Active,
		UnreadCount:    v.UnreadCount,
		Pending:        make([]PendingMessage, len(v.Pending)),
		StartedAt:      v.StartedAt,
		LastCustomerAt: v.LastCustomerAt,
	}
	for i, p := range v.Pending {
		out.Pending[i] = PendingMessage{Text: p.Text, ReceivedAt: p.ReceivedAt}
	}
	if !v.LastAgentAt.IsZero() {
		t := v.LastAgentAt
		out.LastAgentAt = &t
	}
	return out
}

func (s *Server) slotParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || slot <= 0 {
		s.writeStatus(w, http.StatusBadRequest, "invalid slot")
		return 0, false
	}
	return slot, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps handoff errors to HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, usecase.ErrSlotEmpty), errors.Is(err, usecase.ErrTicketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrNotInHandoff), errors.Is(err, usecase.ErrNoActiveTicket):
		status = http.StatusConflict
	default:
		s.log.Error().Err(err).Msg("request failed")
		status = http.StatusBadGateway
	}
	s.writeStatus(w, status, err.Error())
}
