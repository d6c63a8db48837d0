package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// auditRepo implements the Audit repository on sqlite
type auditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new sqlite audit repository
func NewAuditRepo(dbPath string) (repo.AuditRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the webhook worker and the sweeper both record
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS handoff_events (
			id TEXT PRIMARY KEY,
			ticket_code TEXT NOT NULL,
			customer_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			slot INTEGER NOT NULL DEFAULT 0,
			preview TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_handoff_events_ticket ON handoff_events(ticket_code, created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &auditRepo{db: db}, nil
}

// Record appends an event, assigning an id and timestamp when missing
func (r *auditRepo) Record(ctx context.Context, event *domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO handoff_events (id, ticket_code, customer_id, kind, slot, preview, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.TicketCode,
		event.CustomerID,
		string(event.Kind),
		event.Slot,
		event.Preview,
		event.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// ListByTicket lists a ticket's events, oldest first
func (r *auditRepo) ListByTicket(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ticket_code, customer_id, kind, slot, preview, created_at
		FROM (
			SELECT rowid AS seq, id, ticket_code, customer_id, kind, slot, preview, created_at
			FROM handoff_events
			WHERE ticket_code = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, seq ASC
	`, domain.NormalizeTicketCode(ticketCode), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var kind string
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.TicketCode, &event.CustomerID, &kind, &event.Slot, &event.Preview, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Kind = domain.AuditKind(kind)
		event.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, &event)
	}
	return events, rows.Err()
}

// Close closes the database
func (r *auditRepo) Close() error {
	return r.db.Close()
}

// noopAuditRepo discards events when the audit log is disabled
type noopAuditRepo struct{}

// NewNoopAuditRepo creates an audit repository that stores nothing
func NewNoopAuditRepo() repo.AuditRepo {
	return noopAuditRepo{}
}

func (noopAuditRepo) Record(ctx context.Context, event *domain.AuditEvent) error { return nil }

func (noopAuditRepo) ListByTicket(ctx context.Context, ticketCode string, limit int) ([]*domain.AuditEvent, error) {
	return nil, nil
}

func (noopAuditRepo) Close() error { return nil }
