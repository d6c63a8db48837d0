package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

// IdleSweeper periodically reminds the agent about unanswered customers and
// closes handoffs the customer abandoned
type IdleSweeper struct {
	handoffUC *usecase.HandoffUsecase
	conv      *ConversationService
	log       zerolog.Logger

	interval time.Duration
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewIdleSweeper creates a new idle sweeper
func NewIdleSweeper(handoffUC *usecase.HandoffUsecase, conv *ConversationService, interval time.Duration, log zerolog.Logger) *IdleSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &IdleSweeper{
		handoffUC: handoffUC,
		conv:      conv,
		interval:  interval,
		log:       log.With().Str("component", "IdleSweeper").Logger(),
	}
}

// Start starts the sweep loop
func (s *IdleSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.stopCh)
	s.log.Info().Dur("interval", s.interval).Msg("started")
}

// Stop stops the loop and waits for an in-flight sweep
func (s *IdleSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("stopped")
}

func (s *IdleSweeper) loop(stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep and sends its notifications
func (s *IdleSweeper) RunOnce(ctx context.Context) usecase.SweepResult {
	result := s.handoffUC.Sweep()
	if len(result.Reminders) == 0 && len(result.AutoClosed) == 0 {
		return result
	}
	s.log.Debug().
		Int("reminders", len(result.Reminders)).
		Int("auto_closed", len(result.AutoClosed)).
		Msg("sweep")
	s.conv.HandleSweep(ctx, result)
	return result
}
