package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

const previewRunes = 80

// Formatter renders session snapshots as agent-facing text
type Formatter struct {
	catalog    Catalog
	loc        *time.Location
	maxPreview int
}

// NewFormatter creates a formatter. A nil location means UTC.
func NewFormatter(catalog Catalog, loc *time.Location, maxPreview int) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{catalog: catalog, loc: loc, maxPreview: maxPreview}
}

// Catalog returns the canned texts
func (f *Formatter) Catalog() Catalog {
	return f.catalog
}

// Vars builds placeholder values from a session snapshot
func (f *Formatter) Vars(v domain.SessionView, text string) Vars {
	return Vars{
		Slot:    v.Slot,
		Code:    v.TicketCode,
		Name:    v.Name(),
		Phone:   v.CustomerID,
		Text:    text,
		Count:   v.UnreadCount,
		Pending: f.FormatPending(v.Pending, f.maxPreview),
	}
}

// FormatList renders every occupied slot with a short preview
func (f *Formatter) FormatList(views []domain.SessionView) string {
	if len(views) == 0 {
		return f.catalog.AgentListEmpty
	}

	var sb strings.Builder
	sb.WriteString(f.catalog.AgentListHeader)
	for _, v := range views {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("*%d* · #%s %s (%d sin leer)", v.Slot, v.TicketCode, v.Name(), v.UnreadCount))
		if pending := f.FormatPending(v.Pending, f.maxPreview); pending != "" {
			sb.WriteString("\n")
			sb.WriteString(pending)
		}
	}
	return sb.String()
}

// FormatDetail renders one session with its full retained pending list
func (f *Formatter) FormatDetail(v domain.SessionView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Slot %d* · #%s\n", v.Slot, v.TicketCode))
	sb.WriteString(fmt.Sprintf("Nombre: %s\n", v.Name()))
	sb.WriteString(fmt.Sprintf("Teléfono: %s\n", v.CustomerID))
	if !v.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Desde: %s\n", v.StartedAt.In(f.loc).Format("02/01 15:04")))
	}
	sb.WriteString(fmt.Sprintf("Sin leer: %d", v.UnreadCount))
	if pending := f.FormatPending(v.Pending, 0); pending != "" {
		sb.WriteString("\n")
		sb.WriteString(pending)
	}
	return sb.String()
}

// FormatPending renders the newest limit pending messages (0 = all)
func (f *Formatter) FormatPending(pending []domain.PendingMessage, limit int) string {
	if limit > 0 && len(pending) > limit {
		pending = pending[len(pending)-limit:]
	}
	var lines []string
	for _, p := range pending {
		lines = append(lines, fmt.Sprintf("  %s › %s", p.ReceivedAt.In(f.loc).Format("15:04"), Truncate(p.Text, previewRunes)))
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to n runes, appending "..." when cut
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
