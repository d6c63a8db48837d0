package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

func TestRender(t *testing.T) {
	got := Render(DefaultCatalog.AgentForward, Vars{Slot: 2, Code: "AB12CD", Name: "Ana", Text: "precio?"})
	if got != "[slot 2 · #AB12CD] Ana: precio?" {
		t.Errorf("Render() = %q", got)
	}
}

func TestFormatter_FormatListEmpty(t *testing.T) {
	f := NewFormatter(DefaultCatalog, nil, 5)
	if got := f.FormatList(nil); got != DefaultCatalog.AgentListEmpty {
		t.Errorf("FormatList(nil) = %q", got)
	}
}

func TestFormatter_FormatListBoundsPreview(t *testing.T) {
	base := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	f := NewFormatter(DefaultCatalog, time.UTC, 2)
	views := []domain.SessionView{
		{
			TicketCode:  "AB12CD",
			CustomerID:  "5939",
			DisplayName: "Ana",
			Slot:        1,
			UnreadCount: 3,
			Pending: []domain.PendingMessage{
				{Text: "uno", ReceivedAt: base},
				{Text: "dos", ReceivedAt: base.Add(time.Minute)},
				{Text: "tres", ReceivedAt: base.Add(2 * time.Minute)},
			},
		},
	}

	got := f.FormatList(views)

	if !strings.Contains(got, "*1* · #AB12CD Ana (3 sin leer)") {
		t.Errorf("Expected slot line, got %q", got)
	}
	if strings.Contains(got, "uno") {
		t.Errorf("Expected oldest pending truncated from preview, got %q", got)
	}
	if !strings.Contains(got, "14:01 › dos") || !strings.Contains(got, "14:02 › tres") {
		t.Errorf("Expected newest pending in preview, got %q", got)
	}
}

func TestFormatter_FormatDetailShowsAll(t *testing.T) {
	base := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	f := NewFormatter(DefaultCatalog, time.UTC, 1)
	v := domain.SessionView{
		TicketCode: "AB12CD",
		CustomerID: "5939",
		Slot:       4,
		StartedAt:  base,
		Pending: []domain.PendingMessage{
			{Text: "uno", ReceivedAt: base},
			{Text: "dos", ReceivedAt: base},
		},
		UnreadCount: 2,
	}

	got := f.FormatDetail(v)

	for _, want := range []string{"*Slot 4* · #AB12CD", "Nombre: 5939", "Sin leer: 2", "uno", "dos"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in detail, got %q", want, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("ñandú", 3); got != "ñan..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("hola", 10); got != "hola" {
		t.Errorf("Truncate() = %q", got)
	}
}
