package domain

import "time"

// PendingMessage is a customer message the agent has not answered yet
type PendingMessage struct {
	Text       string
	ReceivedAt time.Time
}

// HandoffSession is the per-ticket human handoff state
type HandoffSession struct {
	TicketCode     string
	Active         bool
	Slot           int // 0 when no slot is held
	Pending        []PendingMessage
	UnreadCount    int
	StartedAt      time.Time
	LastCustomerAt time.Time
	LastAgentAt    time.Time
	LastReminderAt time.Time
	ClosedAt       time.Time
}

// HandoffConfig represents handoff configuration (value object)
type HandoffConfig struct {
	MaxSlots       int           // Slot capacity N
	MaxPending     int           // Pending messages retained for display
	ReminderAfter  time.Duration // Unanswered customer time before nudging the agent
	AutoCloseAfter time.Duration // Customer silence after an agent reply before closing
}

// DefaultHandoffConfig returns default handoff configuration
func DefaultHandoffConfig() HandoffConfig {
	return HandoffConfig{
		MaxSlots:       20,
		MaxPending:     5,
		ReminderAfter:  5 * time.Minute,
		AutoCloseAfter: 30 * time.Minute,
	}
}

// Start activates the session with the customer's first message
func (s *HandoffSession) Start(text string, now time.Time, slot int) {
	s.Active = true
	s.Slot = slot
	s.Pending = []PendingMessage{{Text: text, ReceivedAt: now}}
	s.UnreadCount = 1
	s.StartedAt = now
	s.LastCustomerAt = now
	s.LastAgentAt = time.Time{}
	s.LastReminderAt = time.Time{}
	s.ClosedAt = time.Time{}
}

// AddCustomerMessage queues a message, dropping the oldest beyond maxPending.
// Dropped messages still count as unread.
func (s *HandoffSession) AddCustomerMessage(text string, now time.Time, maxPending int) {
	s.Pending = append(s.Pending, PendingMessage{Text: text, ReceivedAt: now})
	if maxPending > 0 && len(s.Pending) > maxPending {
		s.Pending = append([]PendingMessage(nil), s.Pending[len(s.Pending)-maxPending:]...)
	}
	s.UnreadCount++
	s.LastCustomerAt = now
}

// MarkAgentReply records that the agent answered
func (s *HandoffSession) MarkAgentReply(now time.Time) {
	s.Pending = nil
	s.UnreadCount = 0
	s.LastReminderAt = time.Time{}
	s.LastAgentAt = now
}

// Close deactivates the session. Returns false if it was already inactive.
func (s *HandoffSession) Close(now time.Time) bool {
	wasActive := s.Active
	s.Active = false
	s.Slot = 0
	s.Pending = nil
	s.UnreadCount = 0
	s.LastReminderAt = time.Time{}
	if wasActive {
		s.ClosedAt = now
	}
	return wasActive
}

// NeedsReminder reports whether the agent should be nudged about unread messages.
// Repeats are spaced by at least ReminderAfter.
func (s *HandoffSession) NeedsReminder(now time.Time, cfg HandoffConfig) bool {
	if !s.Active || s.UnreadCount == 0 || cfg.ReminderAfter <= 0 {
		return false
	}
	if now.Sub(s.LastCustomerAt) < cfg.ReminderAfter {
		return false
	}
	ref := s.LastReminderAt
	if ref.IsZero() {
		ref = s.StartedAt
	}
	return now.Sub(ref) >= cfg.ReminderAfter
}

// ShouldAutoClose reports whether the agent replied and the customer went quiet
func (s *HandoffSession) ShouldAutoClose(now time.Time, cfg HandoffConfig) bool {
	if !s.Active || s.LastAgentAt.IsZero() || cfg.AutoCloseAfter <= 0 {
		return false
	}
	if !s.LastAgentAt.After(s.LastCustomerAt) {
		return false
	}
	return now.Sub(s.LastAgentAt) >= cfg.AutoCloseAfter
}

// MarkReminded stamps the last reminder time
func (s *HandoffSession) MarkReminded(now time.Time) {
	s.LastReminderAt = now
}
