package domain

import "time"

// AuditKind represents a handoff transition
type AuditKind string

const (
	AuditStarted          AuditKind = "started"
	AuditCustomerMessage  AuditKind = "customer_message"
	AuditAgentReply       AuditKind = "agent_reply"
	AuditClosedEnd        AuditKind = "closed_end"
	AuditClosedBot        AuditKind = "closed_bot"
	AuditClosedAuto       AuditKind = "closed_auto"
	AuditRejectedCapacity AuditKind = "rejected_capacity"
	AuditReminder         AuditKind = "reminder"
)

// AuditEvent is one entry of the handoff event log
type AuditEvent struct {
	ID         string    `json:"id"`
	TicketCode string    `json:"ticket_code"`
	CustomerID string    `json:"customer_id"`
	Kind       AuditKind `json:"kind"`
	Slot       int       `json:"slot"`
	Preview    string    `json:"preview"`
	CreatedAt  time.Time `json:"created_at"`
}
