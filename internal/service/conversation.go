package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

const auditPreviewRunes = 200

// Options contains deployment-specific settings for the conversation flow
type Options struct {
	AgentPhone   string
	TemplateName string // Empty disables the template fallback
	TemplateLang string
	KhumicLink   string
	SeaweedLink  string
}

// ConversationService routes inbound messages: customers go through keyword
// dispatch or the handoff queue, the agent's messages are console commands
type ConversationService struct {
	handoffUC *usecase.HandoffUsecase
	intentUC  *usecase.IntentUsecase
	formatter *usecase.Formatter
	messenger repo.MessengerRepo
	audit     repo.AuditRepo
	opts      Options
	log       zerolog.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(
	handoffUC *usecase.HandoffUsecase,
	intentUC *usecase.IntentUsecase,
	formatter *usecase.Formatter,
	messenger repo.MessengerRepo,
	audit repo.AuditRepo,
	opts Options,
	log zerolog.Logger,
) *ConversationService {
	return &ConversationService{
		handoffUC: handoffUC,
		intentUC:  intentUC,
		formatter: formatter,
		messenger: messenger,
		audit:     audit,
		opts:      opts,
		log:       log.With().Str("component", "Conversation").Logger(),
	}
}

// IsAgent reports whether a sender is the human agent
func (s *ConversationService) IsAgent(from string) bool {
	return from != "" && from == s.opts.AgentPhone
}

// HandleInbound processes one webhook message. Errors are logged, never returned:
// the platform has already been acknowledged.
func (s *ConversationService) HandleInbound(ctx context.Context, msg *domain.InboundMessage) {
	log := s.logger(ctx).With().Str("from", msg.From).Str("type", string(msg.Type)).Logger()

	if s.IsAgent(msg.From) {
		if !msg.IsText() {
			log.Debug().Msg("ignoring non-text agent message")
			return
		}
		reply := s.ExecuteCommand(ctx, msg.Text)
		if err := s.messenger.SendText(ctx, s.opts.AgentPhone, reply); err != nil {
			log.Error().Err(err).Msg("failed to answer agent command")
		}
		return
	}

	ticket := s.handoffUC.EnsureTicket(msg.From, msg.SenderName, msg.ID)
	log = log.With().Str("ticket", ticket.Code).Logger()

	// Customer already with the agent: queue and relay, never dispatch
	if _, ok := s.handoffUC.InHandoff(msg.From); ok {
		s.relayToAgent(ctx, log, ticket, msg.Text)
		return
	}

	if !msg.IsText() {
		log.Debug().Msg("ignoring non-text message outside handoff")
		return
	}

	intent, err := s.intentUC.Classify(ctx, msg.Text)
	if err != nil {
		log.Warn().Err(err).Msg("classifier failed, using fallback")
	}
	log.Debug().Str("intent", string(intent)).Str("text", usecase.Truncate(msg.Text, 60)).Msg("dispatch")

	s.dispatch(ctx, log, ticket, intent, msg.Text)
}

func (s *ConversationService) dispatch(ctx context.Context, log zerolog.Logger, ticket domain.Ticket, intent domain.Intent, text string) {
	catalog := s.formatter.Catalog()
	to := ticket.CustomerID

	switch intent {
	case domain.IntentKhumicSheet:
		s.sendDocument(ctx, log, to, domain.Document{
			Link:     s.opts.KhumicLink,
			Filename: "Khumic-100.pdf",
			Caption:  catalog.KhumicCaption,
		})
	case domain.IntentSeaweedSheet:
		s.sendDocument(ctx, log, to, domain.Document{
			Link:     s.opts.SeaweedLink,
			Filename: "Seaweed-800.pdf",
			Caption:  catalog.SeaweedCaption,
		})
	case domain.IntentSheets:
		s.sendText(ctx, log, to, catalog.Sheets)
	case domain.IntentHandoff:
		s.startHandoff(ctx, log, ticket, text)
	case domain.IntentMenu:
		s.sendText(ctx, log, to, catalog.Menu)
	case domain.IntentProducts:
		s.sendText(ctx, log, to, catalog.Products)
	case domain.IntentCatalogue:
		s.sendText(ctx, log, to, catalog.Catalogue)
	case domain.IntentPrices:
		s.sendText(ctx, log, to, catalog.Prices)
	case domain.IntentLocation:
		s.sendText(ctx, log, to, catalog.Location)
	default:
		s.sendText(ctx, log, to, catalog.Fallback)
	}
}

// sendDocument degrades to a text when the link is not configured
func (s *ConversationService) sendDocument(ctx context.Context, log zerolog.Logger, to string, doc domain.Document) {
	if doc.Link == "" {
		log.Warn().Str("filename", doc.Filename).Msg("document link not configured")
		s.sendText(ctx, log, to, s.formatter.Catalog().NotAvailable)
		return
	}
	if err := s.messenger.SendDocument(ctx, to, doc); err != nil {
		log.Error().Err(err).Str("filename", doc.Filename).Msg("failed to send document")
	}
}

func (s *ConversationService) sendText(ctx context.Context, log zerolog.Logger, to, body string) {
	if err := s.messenger.SendText(ctx, to, body); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send text")
	}
}

// ========== Handoff (customer side) ==========

func (s *ConversationService) startHandoff(ctx context.Context, log zerolog.Logger, ticket domain.Ticket, text string) {
	catalog := s.formatter.Catalog()

	view, err := s.handoffUC.StartHandoff(ticket.Code, text)
	if errors.Is(err, usecase.ErrNoFreeSlot) {
		log.Warn().Int("capacity", s.handoffUC.Config().MaxSlots).Msg("handoff rejected, no free slot")
		s.record(ctx, domain.AuditRejectedCapacity, view, text)
		s.sendText(ctx, log, ticket.CustomerID, catalog.HandoffBusy)
		s.notifyAgent(ctx, log, usecase.Render(catalog.AgentCapacityFull, s.formatter.Vars(view, text)), view, text)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to start handoff")
		return
	}

	log.Info().Int("slot", view.Slot).Msg("handoff started")
	s.record(ctx, domain.AuditStarted, view, text)
	s.sendText(ctx, log, ticket.CustomerID, usecase.Render(catalog.HandoffStart, s.formatter.Vars(view, text)))
	s.notifyAgent(ctx, log, usecase.Render(catalog.AgentNewHandoff, s.formatter.Vars(view, text)), view, text)
}

func (s *ConversationService) relayToAgent(ctx context.Context, log zerolog.Logger, ticket domain.Ticket, text string) {
	view, err := s.handoffUC.RecordCustomerMessage(ticket.Code, text)
	if err != nil {
		// Closed between the check and the record; the next message is dispatched normally
		log.Warn().Err(err).Msg("failed to queue customer message")
		return
	}
	s.record(ctx, domain.AuditCustomerMessage, view, text)
	s.notifyAgent(ctx, log, usecase.Render(s.formatter.Catalog().AgentForward, s.formatter.Vars(view, text)), view, text)
}

// notifyAgent sends a free-form text to the agent, retrying once through the
// configured template when the platform rejects it for the messaging window
func (s *ConversationService) notifyAgent(ctx context.Context, log zerolog.Logger, body string, view domain.SessionView, text string) {
	err := s.messenger.SendText(ctx, s.opts.AgentPhone, body)
	if err == nil {
		return
	}
	if s.opts.TemplateName == "" || !errors.Is(err, repo.ErrDeliveryWindow) {
		log.Error().Err(err).Msg("failed to notify agent")
		return
	}

	params := []string{
		slotLabel(view.Slot),
		"#" + view.TicketCode,
		view.Name(),
		usecase.Truncate(text, 60),
	}
	if terr := s.messenger.SendTemplate(ctx, s.opts.AgentPhone, s.opts.TemplateName, s.opts.TemplateLang, params); terr != nil {
		log.Error().Err(terr).AnErr("text_err", err).Msg("failed to notify agent via template")
		return
	}
	log.Info().Str("template", s.opts.TemplateName).Msg("agent notified via template")
}

// ========== Agent console ==========

// ExecuteCommand runs one agent console line and returns the text to show the agent
func (s *ConversationService) ExecuteCommand(ctx context.Context, text string) string {
	catalog := s.formatter.Catalog()
	cmd := usecase.ParseCommand(text)

	switch cmd.Kind {
	case domain.CommandList:
		return s.formatter.FormatList(s.handoffUC.ListActive())

	case domain.CommandUse:
		view, err := s.handoffUC.SetActiveTicket(cmd.Target)
		if err != nil {
			return s.errorText(err, cmd.Target, domain.SessionView{})
		}
		return usecase.Render(catalog.AgentUse, s.formatter.Vars(view, ""))

	case domain.CommandWho:
		view, ok := s.handoffUC.ActiveTicket()
		if !ok {
			return catalog.AgentWhoNone
		}
		return usecase.Render(catalog.AgentWho, s.formatter.Vars(view, ""))

	case domain.CommandStop:
		s.handoffUC.ClearActiveTicket()
		return catalog.AgentStop

	case domain.CommandClose:
		view, closed, err := s.Close(ctx, cmd.Target, cmd.Notify)
		if err != nil {
			return s.errorText(err, cmd.Target, view)
		}
		if !closed {
			return usecase.Render(catalog.AgentNotActive, s.formatter.Vars(view, ""))
		}
		if cmd.Notify {
			return usecase.Render(catalog.AgentClosedEnd, s.formatter.Vars(view, ""))
		}
		return usecase.Render(catalog.AgentClosedBot, s.formatter.Vars(view, ""))

	case domain.CommandReply:
		view, err := s.Reply(ctx, cmd.Target, cmd.Text)
		if err != nil {
			return s.errorText(err, cmd.Target, view)
		}
		return usecase.Render(catalog.AgentSent, s.formatter.Vars(view, ""))

	case domain.CommandDetail:
		view, err := s.handoffUC.Resolve(cmd.Target)
		if err != nil {
			return s.errorText(err, cmd.Target, view)
		}
		return s.formatter.FormatDetail(view)

	default:
		return s.helpText()
	}
}

func (s *ConversationService) helpText() string {
	catalog := s.formatter.Catalog()
	who := catalog.AgentWhoNone
	if view, ok := s.handoffUC.ActiveTicket(); ok {
		who = usecase.Render(catalog.AgentWho, s.formatter.Vars(view, ""))
	}
	return catalog.AgentHelp + "\n\n" + who + "\n\n" + s.formatter.FormatList(s.handoffUC.ListActive())
}

func (s *ConversationService) errorText(err error, target domain.Target, view domain.SessionView) string {
	catalog := s.formatter.Catalog()
	vars := s.formatter.Vars(view, err.Error())
	if vars.Code == "" {
		vars.Code = target.TicketCode
	}
	if vars.Slot == 0 && target.Slot > 0 {
		vars.Slot = target.Slot
	}

	switch {
	case errors.Is(err, usecase.ErrSlotEmpty):
		return usecase.Render(catalog.AgentSlotEmpty, vars)
	case errors.Is(err, usecase.ErrTicketNotFound):
		return usecase.Render(catalog.AgentUnknown, vars)
	case errors.Is(err, usecase.ErrNoActiveTicket):
		return catalog.AgentNoActive
	case errors.Is(err, usecase.ErrNotInHandoff):
		return usecase.Render(catalog.AgentNotActive, vars)
	default:
		return usecase.Render(catalog.AgentSendFailed, vars)
	}
}

// Reply delivers an agent message to the target customer and marks the
// session answered. The session is only updated after a successful send.
func (s *ConversationService) Reply(ctx context.Context, target domain.Target, text string) (domain.SessionView, error) {
	view, err := s.handoffUC.Resolve(target)
	if err != nil {
		return view, err
	}
	if !view.Active {
		return view, usecase.ErrNotInHandoff
	}

	if err := s.messenger.SendText(ctx, view.CustomerID, text); err != nil {
		s.logger(ctx).Error().Err(err).Str("ticket", view.TicketCode).Msg("failed to deliver agent reply")
		return view, err
	}

	updated, err := s.handoffUC.RecordAgentReply(view.TicketCode)
	if err != nil {
		// Closed while the message was in flight
		return view, nil
	}
	s.record(ctx, domain.AuditAgentReply, updated, text)
	return updated, nil
}

// Close ends the target's handoff. notify thanks the customer ("end");
// otherwise the customer is silently handed back to the bot ("bot").
func (s *ConversationService) Close(ctx context.Context, target domain.Target, notify bool) (domain.SessionView, bool, error) {
	resolved, err := s.handoffUC.Resolve(target)
	if err != nil {
		return resolved, false, err
	}

	view, closed, err := s.handoffUC.Close(resolved.TicketCode, notify)
	if err != nil || !closed {
		return view, closed, err
	}

	log := s.logger(ctx).With().Str("ticket", view.TicketCode).Logger()
	log.Info().Int("slot", view.Slot).Bool("notify", notify).Msg("handoff closed by agent")

	kind := domain.AuditClosedBot
	if notify {
		kind = domain.AuditClosedEnd
		s.sendText(ctx, log, view.CustomerID, s.formatter.Catalog().HandoffEnd)
	}
	s.record(ctx, kind, view, "")
	return view, true, nil
}

// ListSessions returns every slotted session
func (s *ConversationService) ListSessions() []domain.SessionView {
	return s.handoffUC.ListActive()
}

// GetSession returns the session in a slot
func (s *ConversationService) GetSession(slot int) (domain.SessionView, error) {
	if slot <= 0 {
		return domain.SessionView{}, usecase.ErrSlotEmpty
	}
	return s.handoffUC.Resolve(domain.Target{Slot: slot})
}

// AuditTrail lists a ticket's handoff events
func (s *ConversationService) AuditTrail(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error) {
	return s.audit.ListByTicket(ctx, ticketCode, limit)
}

// ========== Idle sweep ==========

// HandleSweep sends the notifications for one sweep result. State was
// already updated by the sweep itself.
func (s *ConversationService) HandleSweep(ctx context.Context, result usecase.SweepResult) {
	catalog := s.formatter.Catalog()

	for _, view := range result.Reminders {
		log := s.logger(ctx).With().Str("ticket", view.TicketCode).Logger()
		log.Info().Int("slot", view.Slot).Int("unread", view.UnreadCount).Msg("reminding agent")
		s.record(ctx, domain.AuditReminder, view, "")
		s.notifyAgent(ctx, log, usecase.Render(catalog.AgentReminder, s.formatter.Vars(view, "")), view, lastPending(view))
	}

	for _, view := range result.AutoClosed {
		log := s.logger(ctx).With().Str("ticket", view.TicketCode).Logger()
		log.Info().Int("slot", view.Slot).Msg("handoff auto-closed")
		s.record(ctx, domain.AuditClosedAuto, view, "")
		s.sendText(ctx, log, view.CustomerID, catalog.HandoffTimeout)
		s.notifyAgent(ctx, log, usecase.Render(catalog.AgentAutoClosed, s.formatter.Vars(view, "")), view, "")
	}
}

// ========== helpers ==========

func (s *ConversationService) record(ctx context.Context, kind domain.AuditKind, view domain.SessionView, text string) {
	event := &domain.AuditEvent{
		TicketCode: view.TicketCode,
		CustomerID: view.CustomerID,
		Kind:       kind,
		Slot:       view.Slot,
		Preview:    usecase.Truncate(text, auditPreviewRunes),
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger(ctx).Warn().Err(err).Str("kind", string(kind)).Msg("failed to record audit event")
	}
}

// logger prefers the request-scoped logger carried by ctx
func (s *ConversationService) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}

func slotLabel(slot int) string {
	if slot <= 0 {
		return "-"
	}
	return strconv.Itoa(slot)
}

func lastPending(view domain.SessionView) string {
	if len(view.Pending) == 0 {
		return ""
	}
	return view.Pending[len(view.Pending)-1].Text
}
