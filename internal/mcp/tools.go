package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/procampo/whatsapp-bridge/internal/api"
)

// Tools exposes the agent console as MCP tools backed by the local API
type Tools struct {
	client *Client
}

// NewServer creates an MCP server with every handoff tool registered
func NewServer(client *Client, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "procampo-handoff",
		Version: version,
	}, nil)

	t := &Tools{client: client}
	t.register(server)
	return server
}

func (t *Tools) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_list_sessions",
		Description: "List the customers currently waiting for or talking with the human agent, by slot number, with unread counts and a preview of their latest messages.",
	}, t.ListSessions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_get_session",
		Description: "Get the detail of one slot: ticket code, customer name and phone, and every unanswered message.",
	}, t.GetSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_reply",
		Description: "Send a WhatsApp message to the customer in a slot on behalf of the agent. Clears the slot's unread messages.",
	}, t.Reply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_close",
		Description: "End the human conversation in a slot and free it. With notify=true the customer gets a goodbye message, otherwise they are silently handed back to the bot.",
	}, t.Close)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_command",
		Description: "Run an agent console command exactly as typed on WhatsApp (chats, use N, who, stop, end N, bot N, N text, r text, N?) and return the console reply.",
	}, t.Command)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "handoff_audit_trail",
		Description: "List the recorded handoff events of a ticket: start, messages, replies, reminders and closes.",
	}, t.AuditTrail)
}

// SessionInfo is the tool-facing form of a session. Times are RFC 3339 strings.
type SessionInfo struct {
	Slot        int           `json:"slot"`
	TicketCode  string        `json:"ticket_code"`
	CustomerID  string        `json:"customer_id"`
	Name        string        `json:"name"`
	Active      bool          `json:"active"`
	UnreadCount int           `json:"unread_count"`
	Pending     []PendingInfo `json:"pending"`
	StartedAt   string        `json:"started_at"`
	LastAgentAt string        `json:"last_agent_at,omitempty"`
}

// PendingInfo is an unanswered customer message
type PendingInfo struct {
	Text       string `json:"text"`
	ReceivedAt string `json:"received_at"`
}

// AuditEventInfo is the tool-facing form of an audit event
type AuditEventInfo struct {
	Kind      string `json:"kind"`
	Slot      int    `json:"slot,omitempty"`
	Preview   string `json:"preview,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toSessionInfo(s api.Session) SessionInfo {
	info := SessionInfo{
		Slot:        s.Slot,
		TicketCode:  s.TicketCode,
		CustomerID:  s.CustomerID,
		Name:        s.Name,
		Active:      s.Active,
		UnreadCount: s.UnreadCount,
		Pending:     make([]PendingInfo, len(s.Pending)),
		StartedAt:   formatTime(s.StartedAt),
	}
	for i, p := range s.Pending {
		info.Pending[i] = PendingInfo{Text: p.Text, ReceivedAt: formatTime(p.ReceivedAt)}
	}
	if s.LastAgentAt != nil {
		info.LastAgentAt = formatTime(*s.LastAgentAt)
	}
	return info
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ListSessionsInput is empty - no input needed
type ListSessionsInput struct{}

// ListSessionsOutput contains the occupied slots
type ListSessionsOutput struct {
	Sessions []SessionInfo `json:"sessions"`
	Error    string        `json:"error,omitempty"`
}

func (t *Tools) ListSessions(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
	sessions, err := t.client.ListSessions(ctx)
	if err != nil {
		return nil, ListSessionsOutput{Sessions: []SessionInfo{}, Error: err.Error()}, nil
	}
	out := ListSessionsOutput{Sessions: make([]SessionInfo, len(sessions))}
	for i, session := range sessions {
		out.Sessions[i] = toSessionInfo(session)
	}
	return nil, out, nil
}

// SlotInput addresses one slot
type SlotInput struct {
	Slot int `json:"slot" jsonschema:"the slot number shown in the session list"`
}

// SessionOutput contains one session
type SessionOutput struct {
	Session *SessionInfo `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func (t *Tools) GetSession(ctx context.Context, req *mcp.CallToolRequest, input SlotInput) (*mcp.CallToolResult, SessionOutput, error) {
	session, err := t.client.GetSession(ctx, input.Slot)
	if err != nil {
		return nil, SessionOutput{Error: err.Error()}, nil
	}
	info := toSessionInfo(*session)
	return nil, SessionOutput{Session: &info}, nil
}

// ReplyInput is the input for handoff_reply
type ReplyInput struct {
	Slot int    `json:"slot" jsonschema:"the slot number of the customer"`
	Text string `json:"text" jsonschema:"the message to send, in Spanish"`
}

func (t *Tools) Reply(ctx context.Context, req *mcp.CallToolRequest, input ReplyInput) (*mcp.CallToolResult, SessionOutput, error) {
	if input.Text == "" {
		return nil, SessionOutput{Error: "text is required"}, nil
	}
	session, err := t.client.Reply(ctx, input.Slot, input.Text)
	if err != nil {
		return nil, SessionOutput{Error: err.Error()}, nil
	}
	info := toSessionInfo(*session)
	return nil, SessionOutput{Session: &info}, nil
}

// CloseInput is the input for handoff_close
type CloseInput struct {
	Slot   int  `json:"slot" jsonschema:"the slot number to free"`
	Notify bool `json:"notify,omitempty" jsonschema:"send the customer a goodbye message"`
}

// CloseOutput reports the close result
type CloseOutput struct {
	Closed     bool   `json:"closed"`
	TicketCode string `json:"ticket_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (t *Tools) Close(ctx context.Context, req *mcp.CallToolRequest, input CloseInput) (*mcp.CallToolResult, CloseOutput, error) {
	resp, err := t.client.Close(ctx, input.Slot, input.Notify)
	if err != nil {
		return nil, CloseOutput{Error: err.Error()}, nil
	}
	return nil, CloseOutput{Closed: resp.Closed, TicketCode: resp.Session.TicketCode}, nil
}

// CommandInput is the input for handoff_command
type CommandInput struct {
	Text string `json:"text" jsonschema:"the console command line"`
}

// CommandOutput contains the console reply
type CommandOutput struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

func (t *Tools) Command(ctx context.Context, req *mcp.CallToolRequest, input CommandInput) (*mcp.CallToolResult, CommandOutput, error) {
	if input.Text == "" {
		return nil, CommandOutput{Error: "text is required"}, nil
	}
	reply, err := t.client.Command(ctx, input.Text)
	if err != nil {
		return nil, CommandOutput{Error: err.Error()}, nil
	}
	return nil, CommandOutput{Reply: reply}, nil
}

// AuditInput is the input for handoff_audit_trail
type AuditInput struct {
	TicketCode string `json:"ticket_code" jsonschema:"the ticket code, with or without the leading #"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of events (default 100)"`
}

// AuditOutput contains the ticket's events
type AuditOutput struct {
	Events []AuditEventInfo `json:"events"`
	Error  string           `json:"error,omitempty"`
}

func (t *Tools) AuditTrail(ctx context.Context, req *mcp.CallToolRequest, input AuditInput) (*mcp.CallToolResult, AuditOutput, error) {
	if input.TicketCode == "" {
		return nil, AuditOutput{Events: []AuditEventInfo{}, Error: "ticket_code is required"}, nil
	}
	events, err := t.client.AuditTrail(ctx, input.TicketCode, input.Limit)
	if err != nil {
		return nil, AuditOutput{Events: []AuditEventInfo{}, Error: err.Error()}, nil
	}
	out := AuditOutput{Events: make([]AuditEventInfo, len(events))}
	for i, e := range events {
		out.Events[i] = AuditEventInfo{
			Kind:      string(e.Kind),
			Slot:      e.Slot,
			Preview:   e.Preview,
			CreatedAt: formatTime(e.CreatedAt),
		}
	}
	return nil, out, nil
}
