package repo

import (
	"context"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

// AuditRepo is the handoff event log interface
// Responsible for append-only persistence (SQLite)
type AuditRepo interface {
	// Record appends an event
	Record(ctx context.Context, event *domain.AuditEvent) error

	// ListByTicket lists up to limit of a ticket's most recent events, oldest first
	ListByTicket(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error)

	Close() error
}
