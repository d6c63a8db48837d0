package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
	"github.com/procampo/whatsapp-bridge/internal/biz/usecase"
)

const (
	agentPhone = "593999000000"
	customerA  = "593900000001"
	customerB  = "593900000002"
)

// Mock implementations

type sentMessage struct {
	To     string
	Kind   string
	Body   string
	Params []string
}

type mockMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	failText map[string]error // recipient -> error for SendText
}

func (m *mockMessenger) SendText(ctx context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failText[to]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMessage{To: to, Kind: "text", Body: body})
	return nil
}

func (m *mockMessenger) SendDocument(ctx context.Context, to string, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Kind: "document", Body: doc.Link})
	return nil
}

func (m *mockMessenger) SendTemplate(ctx context.Context, to, name, lang string, params []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{To: to, Kind: "template", Body: name, Params: params})
	return nil
}

func (m *mockMessenger) to(recipient string) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.To == recipient {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockMessenger) last(recipient string) sentMessage {
	msgs := m.to(recipient)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *mockMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type mockAuditRepo struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (m *mockAuditRepo) Record(ctx context.Context, event *domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditRepo) ListByTicket(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditEvent
	for _, e := range m.events {
		if e.TicketCode == domain.NormalizeTicketCode(ticketCode) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) Close() error { return nil }

func (m *mockAuditRepo) kinds() []domain.AuditKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditKind
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

var _ repo.MessengerRepo = (*mockMessenger)(nil)
var _ repo.AuditRepo = (*mockAuditRepo)(nil)

type testEnv struct {
	svc       *ConversationService
	handoff   *usecase.HandoffUsecase
	messenger *mockMessenger
	audit     *mockAuditRepo
	now       time.Time
}

func newTestEnv(t *testing.T, slots int) *testEnv {
	t.Helper()
	cfg := domain.DefaultHandoffConfig()
	cfg.MaxSlots = slots

	env := &testEnv{
		handoff:   usecase.NewHandoffUsecase(cfg),
		messenger: &mockMessenger{failText: map[string]error{}},
		audit:     &mockAuditRepo{},
		now:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	env.handoff.SetClock(func() time.Time { return env.now })

	env.svc = NewConversationService(
		env.handoff,
		usecase.NewIntentUsecase(nil),
		usecase.NewFormatter(usecase.DefaultCatalog, time.UTC, 3),
		env.messenger,
		env.audit,
		Options{
			AgentPhone:   agentPhone,
			TemplateName: "handoff_alert",
			TemplateLang: "es",
			KhumicLink:   "https://example.com/khumic.pdf",
		},
		zerolog.Nop(),
	)
	return env
}

func (e *testEnv) customer(from, text string) {
	e.svc.HandleInbound(context.Background(), &domain.InboundMessage{
		ID:   "wamid." + from + text,
		From: from,
		Type: domain.MessageTypeText,
		Text: text,
	})
}

func (e *testEnv) agent(text string) string {
	e.svc.HandleInbound(context.Background(), &domain.InboundMessage{
		ID:   "wamid.agent." + text,
		From: agentPhone,
		Type: domain.MessageTypeText,
		Text: text,
	})
	return e.messenger.last(agentPhone).Body
}

func (e *testEnv) ticket(customerID string) string {
	code, _ := e.handoff.LookupByCustomer(customerID)
	return code
}

// Tests

func TestConversation_KeywordDispatch(t *testing.T) {
	env := newTestEnv(t, 5)
	catalog := usecase.DefaultCatalog

	tests := []struct {
		text string
		want string
	}{
		{"hola", catalog.Menu},
		{"1", catalog.Products},
		{"2", catalog.Catalogue},
		{"3", catalog.Prices},
		{"4", catalog.Location},
		{"6", catalog.Sheets},
		{"ficha seaweed", catalog.NotAvailable},
		{"qwerty", catalog.Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			env.customer(customerA, tt.text)
			if got := env.messenger.last(customerA); got.Body != tt.want {
				t.Errorf("reply to %q = %q, want %q", tt.text, got.Body, tt.want)
			}
		})
	}
}

func TestConversation_DocumentSentByLink(t *testing.T) {
	env := newTestEnv(t, 5)

	env.customer(customerA, "Ficha Khumic")

	got := env.messenger.last(customerA)
	if got.Kind != "document" || got.Body != "https://example.com/khumic.pdf" {
		t.Errorf("Expected khumic document, got %+v", got)
	}
}

func TestConversation_HandoffFlow(t *testing.T) {
	env := newTestEnv(t, 5)

	env.customer(customerA, "quiero hablar con un asesor")
	code := env.ticket(customerA)

	if got := env.messenger.last(customerA).Body; !strings.Contains(got, "#"+code) {
		t.Errorf("Expected customer to receive ticket #%s, got %q", code, got)
	}
	if got := env.messenger.last(agentPhone).Body; !strings.Contains(got, "slot 1 · #"+code) {
		t.Errorf("Expected agent alert for slot 1, got %q", got)
	}

	// While in handoff, menu keywords are relayed instead of answered
	env.messenger.reset()
	env.customer(customerA, "menu")
	if len(env.messenger.to(customerA)) != 0 {
		t.Errorf("Expected no bot reply during handoff, got %+v", env.messenger.to(customerA))
	}
	if got := env.messenger.last(agentPhone).Body; !strings.HasSuffix(got, ": menu") {
		t.Errorf("Expected forwarded message, got %q", got)
	}

	// Agent answers by slot
	if got := env.agent("1 Hola, ¿en qué le ayudo?"); !strings.Contains(got, "#"+code) {
		t.Errorf("Expected send confirmation, got %q", got)
	}
	if got := env.messenger.last(customerA).Body; got != "Hola, ¿en qué le ayudo?" {
		t.Errorf("Expected reply delivered, got %q", got)
	}
	view, _ := env.handoff.InHandoff(customerA)
	if view.UnreadCount != 0 {
		t.Errorf("Expected unread reset, got %d", view.UnreadCount)
	}

	// Agent closes with a goodbye
	env.agent("end 1")
	if got := env.messenger.last(customerA).Body; got != usecase.DefaultCatalog.HandoffEnd {
		t.Errorf("Expected goodbye, got %q", got)
	}
	if _, ok := env.handoff.InHandoff(customerA); ok {
		t.Error("Expected customer back with the bot")
	}

	want := []domain.AuditKind{
		domain.AuditStarted,
		domain.AuditCustomerMessage,
		domain.AuditAgentReply,
		domain.AuditClosedEnd,
	}
	if got := env.audit.kinds(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("audit kinds = %v, want %v", got, want)
	}
}

func TestConversation_BotCloseIsSilent(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "5")
	code := env.ticket(customerA)
	env.messenger.reset()

	reply := env.agent("bot #" + strings.ToLower(code))

	if len(env.messenger.to(customerA)) != 0 {
		t.Errorf("Expected no message to customer, got %+v", env.messenger.to(customerA))
	}
	if !strings.Contains(reply, "devuelto al bot") {
		t.Errorf("Expected bot confirmation, got %q", reply)
	}

	// Closing again reports the ticket as not active
	if reply := env.agent("bot #" + code); !strings.Contains(reply, "no está en atención") {
		t.Errorf("Expected not-active notice, got %q", reply)
	}
}

func TestConversation_RejectAtCapacity(t *testing.T) {
	env := newTestEnv(t, 1)
	env.customer(customerA, "asesor")
	env.customer(customerB, "asesor")

	if got := env.messenger.last(customerB).Body; got != usecase.DefaultCatalog.HandoffBusy {
		t.Errorf("Expected busy text, got %q", got)
	}
	if got := env.messenger.last(agentPhone).Body; !strings.Contains(got, "Sin slots libres") {
		t.Errorf("Expected capacity alert, got %q", got)
	}
	if _, ok := env.handoff.InHandoff(customerB); ok {
		t.Error("Expected rejected customer to stay with the bot")
	}

	// The rejected customer is dispatched normally afterwards
	env.customer(customerB, "menu")
	if got := env.messenger.last(customerB).Body; got != usecase.DefaultCatalog.Menu {
		t.Errorf("Expected menu, got %q", got)
	}
}

func TestConversation_TemplateFallback(t *testing.T) {
	env := newTestEnv(t, 5)
	env.messenger.failText[agentPhone] = fmt.Errorf("send: %w", repo.ErrDeliveryWindow)

	env.customer(customerA, "asesor")
	code := env.ticket(customerA)

	got := env.messenger.last(agentPhone)
	if got.Kind != "template" || got.Body != "handoff_alert" {
		t.Fatalf("Expected template fallback, got %+v", got)
	}
	want := []string{"1", "#" + code, customerA, "asesor"}
	if fmt.Sprint(got.Params) != fmt.Sprint(want) {
		t.Errorf("template params = %v, want %v", got.Params, want)
	}
}

func TestConversation_NoFallbackForOtherErrors(t *testing.T) {
	env := newTestEnv(t, 5)
	env.messenger.failText[agentPhone] = errors.New("connection reset")

	env.customer(customerA, "asesor")

	if got := env.messenger.to(agentPhone); len(got) != 0 {
		t.Errorf("Expected no template for non-window errors, got %+v", got)
	}
	if _, ok := env.handoff.InHandoff(customerA); !ok {
		t.Error("Expected handoff to start even when the agent alert fails")
	}
}

func TestConversation_ReplyFailureKeepsUnread(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "asesor")
	env.messenger.failText[customerA] = errors.New("boom")

	reply := env.agent("1 hola")

	if !strings.Contains(reply, "No se pudo enviar") || !strings.Contains(reply, "boom") {
		t.Errorf("Expected send failure notice, got %q", reply)
	}
	view, _ := env.handoff.InHandoff(customerA)
	if view.UnreadCount != 1 {
		t.Errorf("Expected unread kept at 1, got %d", view.UnreadCount)
	}
}

func TestConversation_AgentCommands(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "asesor")
	env.customer(customerB, "asesor")
	codeB := env.ticket(customerB)

	tests := []struct {
		name     string
		command  string
		contains string
	}{
		{"list", "chats", "Conversaciones activas"},
		{"reply without selection", "r hola", "No hay ticket seleccionado"},
		{"who before use", "who", "Ningún ticket"},
		{"use by slot", "use 2", "#" + codeB},
		{"who after use", "who", "slot 2 · #" + codeB},
		{"reply to active", "r buenas", "✓ enviado a [slot 2"},
		{"detail", "1?", "*Slot 1*"},
		{"empty slot", "4 hola", "El slot 4 está vacío"},
		{"unknown code", "use #ZZZZZZ", "Ticket #ZZZZZZ no existe"},
		{"stop", "stop", "Selección borrada"},
		{"help", "???", "Comandos:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := env.agent(tt.command); !strings.Contains(got, tt.contains) {
				t.Errorf("%q -> %q, want it to contain %q", tt.command, got, tt.contains)
			}
		})
	}

	if got := env.messenger.last(customerB).Body; got != "buenas" {
		t.Errorf("Expected active-ticket reply delivered to B, got %q", got)
	}
}

func TestConversation_AgentNonTextIgnored(t *testing.T) {
	env := newTestEnv(t, 5)

	env.svc.HandleInbound(context.Background(), &domain.InboundMessage{
		From: agentPhone,
		Type: domain.MessageTypeImage,
		Text: "[image]",
	})

	if len(env.messenger.to(agentPhone)) != 0 {
		t.Error("Expected no reply to non-text agent message")
	}
}

func TestConversation_MediaRelayedDuringHandoff(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "asesor")

	env.svc.HandleInbound(context.Background(), &domain.InboundMessage{
		From: customerA,
		Type: domain.MessageTypeImage,
		Text: "[image]",
	})

	if got := env.messenger.last(agentPhone).Body; !strings.HasSuffix(got, ": [image]") {
		t.Errorf("Expected media placeholder forwarded, got %q", got)
	}
}

func TestConversation_HandleSweep(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "asesor")
	env.customer(customerB, "asesor")
	env.now = env.now.Add(time.Minute)
	env.agent("1 hola")
	env.messenger.reset()

	env.now = env.now.Add(31 * time.Minute)
	sweeper := NewIdleSweeper(env.handoff, env.svc, time.Minute, zerolog.Nop())
	result := sweeper.RunOnce(context.Background())

	if len(result.AutoClosed) != 1 || len(result.Reminders) != 1 {
		t.Fatalf("Expected one auto-close and one reminder, got %+v", result)
	}
	if got := env.messenger.last(customerA).Body; got != usecase.DefaultCatalog.HandoffTimeout {
		t.Errorf("Expected timeout notice to A, got %q", got)
	}

	var agentTexts []string
	for _, m := range env.messenger.to(agentPhone) {
		agentTexts = append(agentTexts, m.Body)
	}
	joined := strings.Join(agentTexts, "\n")
	if !strings.Contains(joined, "espera respuesta") || !strings.Contains(joined, "cerrado por inactividad") {
		t.Errorf("Expected reminder and auto-close notices, got %q", joined)
	}
}

func TestConversation_AuditTrail(t *testing.T) {
	env := newTestEnv(t, 5)
	env.customer(customerA, "asesor")
	code := env.ticket(customerA)

	events, err := env.svc.AuditTrail(context.Background(), "#"+strings.ToLower(code), 10)
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if len(events) != 1 || events[0].Kind != domain.AuditStarted || events[0].Slot != 1 {
		t.Errorf("Unexpected trail: %+v", events)
	}
}
