package usecase

import (
	"errors"
	"sync"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrSlotEmpty      = errors.New("slot is empty")
	ErrNoFreeSlot     = errors.New("no free slot")
	ErrNotInHandoff   = errors.New("ticket is not in handoff")
	ErrNoActiveTicket = errors.New("no active ticket selected")
)

// HandoffUsecase owns the ticket registry, slot table, handoff sessions and
// the agent's active ticket. All state is guarded by one mutex and no
// method performs I/O; callers send messages after a method returns.
type HandoffUsecase struct {
	mu           sync.Mutex
	config       domain.HandoffConfig
	registry     *domain.TicketRegistry
	slots        *domain.SlotTable
	sessions     map[string]*domain.HandoffSession
	activeTicket string

	now func() time.Time
}

// NewHandoffUsecase creates a new handoff usecase
func NewHandoffUsecase(config domain.HandoffConfig) *HandoffUsecase {
	return &HandoffUsecase{
		config:   config,
		registry: domain.NewTicketRegistry(),
		slots:    domain.NewSlotTable(config.MaxSlots),
		sessions: make(map[string]*domain.HandoffSession),
		now:      time.Now,
	}
}

// SetClock replaces the time source
func (uc *HandoffUsecase) SetClock(now func() time.Time) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.now = now
}

// Config returns the handoff configuration
func (uc *HandoffUsecase) Config() domain.HandoffConfig {
	return uc.config
}

// ========== Ticket Registry ==========

// EnsureTicket returns the customer's ticket, creating it on first contact
func (uc *HandoffUsecase) EnsureTicket(customerID, displayName, seed string) domain.Ticket {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return *uc.registry.Ensure(customerID, displayName, seed, uc.now())
}

// LookupByTicket returns the customer id for a ticket code
func (uc *HandoffUsecase) LookupByTicket(code string) (string, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	t, ok := uc.registry.ByCode(code)
	if !ok {
		return "", false
	}
	return t.CustomerID, true
}

// LookupByCustomer returns the ticket code for a customer id
func (uc *HandoffUsecase) LookupByCustomer(customerID string) (string, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	t, ok := uc.registry.ByCustomer(customerID)
	if !ok {
		return "", false
	}
	return t.Code, true
}

// ========== Session Store ==========

// InHandoff reports whether the customer currently has an active session
func (uc *HandoffUsecase) InHandoff(customerID string) (domain.SessionView, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	t, ok := uc.registry.ByCustomer(customerID)
	if !ok {
		return domain.SessionView{}, false
	}
	s, ok := uc.sessions[t.Code]
	if !ok || !s.Active {
		return domain.SessionView{}, false
	}
	return uc.viewLocked(t, s), true
}

// StartHandoff activates the ticket's session and assigns a slot.
// Starting an already active session just queues the message.
// Returns ErrNoFreeSlot when every slot is taken; the session stays inactive.
func (uc *HandoffUsecase) StartHandoff(code, firstMessage string) (domain.SessionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	t, ok := uc.registry.ByCode(code)
	if !ok {
		return domain.SessionView{}, ErrTicketNotFound
	}
	now := uc.now()
	s := uc.sessionLocked(t.Code)

	if s.Active {
		s.AddCustomerMessage(firstMessage, now, uc.config.MaxPending)
		return uc.viewLocked(t, s), nil
	}

	slot, ok := uc.slots.Assign(t.Code)
	if !ok {
		return uc.viewLocked(t, s), ErrNoFreeSlot
	}
	s.Start(firstMessage, now, slot)
	return uc.viewLocked(t, s), nil
}

// RecordCustomerMessage queues a customer message during handoff
func (uc *HandoffUsecase) RecordCustomerMessage(code, text string) (domain.SessionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	t, s, err := uc.activeLocked(code)
	if err != nil {
		return domain.SessionView{}, err
	}
	s.AddCustomerMessage(text, uc.now(), uc.config.MaxPending)
	return uc.viewLocked(t, s), nil
}

// RecordAgentReply clears the unread queue after the agent answered
func (uc *HandoffUsecase) RecordAgentReply(code string) (domain.SessionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	t, s, err := uc.activeLocked(code)
	if err != nil {
		return domain.SessionView{}, err
	}
	s.MarkAgentReply(uc.now())
	return uc.viewLocked(t, s), nil
}

// Close ends the handoff and frees the slot. manual distinguishes an agent
// "end" (the caller thanks the customer) from a silent hand-back. Closing an
// inactive session is a no-op; closed reports whether anything changed.
func (uc *HandoffUsecase) Close(code string, manual bool) (view domain.SessionView, closed bool, err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	t, ok := uc.registry.ByCode(code)
	if !ok {
		return domain.SessionView{}, false, ErrTicketNotFound
	}
	s, ok := uc.sessions[t.Code]
	if !ok {
		return uc.viewLocked(t, &domain.HandoffSession{TicketCode: t.Code}), false, nil
	}
	// Capture the slot before it is released so callers can report it
	view = uc.viewLocked(t, s)
	closed = uc.closeLocked(t.Code, s)
	view.Active = false
	return view, closed, nil
}

func (uc *HandoffUsecase) closeLocked(code string, s *domain.HandoffSession) bool {
	closed := s.Close(uc.now())
	uc.slots.Release(code)
	if uc.activeTicket == code {
		uc.activeTicket = ""
	}
	return closed
}

// ========== Agent Context ==========

// Resolve finds the session a command target refers to
func (uc *HandoffUsecase) Resolve(target domain.Target) (domain.SessionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.resolveLocked(target)
}

func (uc *HandoffUsecase) resolveLocked(target domain.Target) (domain.SessionView, error) {
	code := target.TicketCode
	switch {
	case target.Slot != 0:
		occupant, ok := uc.slots.TicketAt(target.Slot)
		if !ok {
			return domain.SessionView{}, ErrSlotEmpty
		}
		code = occupant
	case code == "":
		if uc.activeTicket == "" {
			return domain.SessionView{}, ErrNoActiveTicket
		}
		code = uc.activeTicket
	}

	t, ok := uc.registry.ByCode(code)
	if !ok {
		return domain.SessionView{}, ErrTicketNotFound
	}
	return uc.viewLocked(t, uc.sessionLocked(t.Code)), nil
}

// SetActiveTicket selects the ticket used when a command omits its target
func (uc *HandoffUsecase) SetActiveTicket(target domain.Target) (domain.SessionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	view, err := uc.resolveLocked(target)
	if err != nil {
		return domain.SessionView{}, err
	}
	uc.activeTicket = view.TicketCode
	return view, nil
}

// ActiveTicket returns the selected ticket, if any
func (uc *HandoffUsecase) ActiveTicket() (domain.SessionView, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.activeTicket == "" {
		return domain.SessionView{}, false
	}
	t, ok := uc.registry.ByCode(uc.activeTicket)
	if !ok {
		return domain.SessionView{}, false
	}
	return uc.viewLocked(t, uc.sessionLocked(t.Code)), true
}

// ClearActiveTicket deselects the active ticket without closing anything
func (uc *HandoffUsecase) ClearActiveTicket() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.activeTicket = ""
}

// ListActive returns every slotted session in slot order
func (uc *HandoffUsecase) ListActive() []domain.SessionView {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var views []domain.SessionView
	for _, entry := range uc.slots.Occupied() {
		t, ok := uc.registry.ByCode(entry.TicketCode)
		if !ok {
			continue
		}
		views = append(views, uc.viewLocked(t, uc.sessionLocked(t.Code)))
	}
	return views
}

// ========== Idle Sweep ==========

// SweepResult lists the sessions a sweep acted on
type SweepResult struct {
	Reminders  []domain.SessionView
	AutoClosed []domain.SessionView
}

// Sweep stamps reminders and auto-closes stale sessions in one pass.
// The returned views carry what the caller needs to notify people.
func (uc *HandoffUsecase) Sweep() SweepResult {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	var result SweepResult
	now := uc.now()
	for _, entry := range uc.slots.Occupied() {
		s, ok := uc.sessions[entry.TicketCode]
		if !ok || !s.Active {
			continue
		}
		t, ok := uc.registry.ByCode(entry.TicketCode)
		if !ok {
			continue
		}

		switch {
		case s.ShouldAutoClose(now, uc.config):
			view := uc.viewLocked(t, s)
			uc.closeLocked(t.Code, s)
			view.Active = false
			result.AutoClosed = append(result.AutoClosed, view)
		case s.NeedsReminder(now, uc.config):
			s.MarkReminded(now)
			result.Reminders = append(result.Reminders, uc.viewLocked(t, s))
		}
	}
	return result
}

// ========== helpers ==========

func (uc *HandoffUsecase) sessionLocked(code string) *domain.HandoffSession {
	s, ok := uc.sessions[code]
	if !ok {
		s = &domain.HandoffSession{TicketCode: code}
		uc.sessions[code] = s
	}
	return s
}

func (uc *HandoffUsecase) activeLocked(code string) (*domain.Ticket, *domain.HandoffSession, error) {
	t, ok := uc.registry.ByCode(code)
	if !ok {
		return nil, nil, ErrTicketNotFound
	}
	s, ok := uc.sessions[t.Code]
	if !ok || !s.Active {
		return nil, nil, ErrNotInHandoff
	}
	return t, s, nil
}

func (uc *HandoffUsecase) viewLocked(t *domain.Ticket, s *domain.HandoffSession) domain.SessionView {
	pending := make([]domain.PendingMessage, len(s.Pending))
	copy(pending, s.Pending)
	return domain.SessionView{
		TicketCode:     t.Code,
		CustomerID:     t.CustomerID,
		DisplayName:    t.DisplayName,
		Active:         s.Active,
		Slot:           s.Slot,
		UnreadCount:    s.UnreadCount,
		Pending:        pending,
		StartedAt:      s.StartedAt,
		LastCustomerAt: s.LastCustomerAt,
		LastAgentAt:    s.LastAgentAt,
	}
}
