package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
	"github.com/procampo/whatsapp-bridge/internal/middleware"
)

const (
	maxBodyBytes  = 1 << 20
	queueCapacity = 256
)

// InboundHandler processes one webhook message
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg *domain.InboundMessage)
}

type inboundJob struct {
	msg *domain.InboundMessage
	log zerolog.Logger
}

// WhatsAppServer receives Cloud API webhooks. Messages are acknowledged
// immediately and processed in arrival order by a single worker.
type WhatsAppServer struct {
	handler     InboundHandler
	verifyToken string
	dedupTTL    time.Duration
	log         zerolog.Logger

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // wamid -> first seen
	now        func() time.Time

	queue  chan inboundJob
	stopCh chan struct{}
	wg     sync.WaitGroup

	httpServer *http.Server
}

// NewWhatsAppServer creates a new webhook server
func NewWhatsAppServer(handler InboundHandler, verifyToken string, dedupTTL time.Duration, log zerolog.Logger) *WhatsAppServer {
	if dedupTTL <= 0 {
		dedupTTL = 5 * time.Minute
	}
	return &WhatsAppServer{
		handler:     handler,
		verifyToken: verifyToken,
		dedupTTL:    dedupTTL,
		log:         log.With().Str("component", "Webhook").Logger(),
		seenMsgs:    make(map[string]time.Time),
		now:         time.Now,
		queue:       make(chan inboundJob, queueCapacity),
		stopCh:      make(chan struct{}),
	}
}

// Router builds the webhook routes
func (s *WhatsAppServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.log))
	r.Use(middleware.Recoverer(s.log))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleReceive)

	return r
}

// Start starts the worker and serves on addr. Blocks until Stop.
func (s *WhatsAppServer) Start(addr string) error {
	s.startWorker()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops accepting requests and waits for the message in flight
func (s *WhatsAppServer) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()
	return err
}

// handleVerify answers the platform's subscription handshake
func (s *WhatsAppServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && s.verifyToken != "" && q.Get("hub.verify_token") == s.verifyToken {
		s.log.Info().Msg("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	s.log.Warn().Str("mode", q.Get("hub.mode")).Msg("webhook verification rejected")
	w.WriteHeader(http.StatusForbidden)
}

// handleReceive acknowledges first, then queues the message for the worker
func (s *WhatsAppServer) handleReceive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	w.WriteHeader(http.StatusOK)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read webhook body")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn().Err(err).Int("bytes", len(body)).Msg("invalid webhook payload")
		return
	}

	msg := payload.firstMessage()
	if msg == nil {
		// Delivery/read status callbacks
		return
	}

	if msg.ID != "" && !s.markIfNew(msg.ID) {
		s.log.Debug().Str("wamid", msg.ID).Msg("duplicate message ignored")
		return
	}

	job := inboundJob{
		msg: msg,
		log: s.log.With().
			Str("correlation_id", uuid.NewString()).
			Str("wamid", msg.ID).
			Logger(),
	}
	select {
	case s.queue <- job:
		job.log.Debug().
			Str("from", msg.From).
			Str("type", string(msg.Type)).
			Str("text", usecase.Truncate(msg.Text, 50)).
			Msg("received")
	default:
		// Forget the id so a platform redelivery is accepted
		s.forget(msg.ID)
		job.log.Error().Str("from", msg.From).Msg("inbound queue full, message dropped")
	}
}

// markIfNew records a message id and reports whether it was unseen.
// Expired ids are pruned on every insert.
func (s *WhatsAppServer) markIfNew(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.dedupTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}

	if _, exists := s.seenMsgs[msgID]; exists {
		return false
	}
	s.seenMsgs[msgID] = now
	return true
}

// forget removes a message id from the dedupe set
func (s *WhatsAppServer) forget(msgID string) {
	s.seenMsgsMu.Lock()
	delete(s.seenMsgs, msgID)
	s.seenMsgsMu.Unlock()
}

func (s *WhatsAppServer) startWorker() {
	s.wg.Add(1)
	go s.worker()
}

func (s *WhatsAppServer) worker() {
	defer s.wg.Done()
	for {
		select {
		case job := <-s.queue:
			s.process(job)
		case <-s.stopCh:
			return
		}
	}
}

func (s *WhatsAppServer) process(job inboundJob) {
	defer func() {
		if rec := recover(); rec != nil {
			job.log.Error().Interface("panic", rec).Msg("panic while handling message")
		}
	}()
	ctx := job.log.WithContext(context.Background())
	s.handler.HandleInbound(ctx, job.msg)
}
