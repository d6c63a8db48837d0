package usecase

import (
	"testing"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Command
	}{
		{"chats", domain.Command{Kind: domain.CommandList}},
		{" LIST ", domain.Command{Kind: domain.CommandList}},
		{"use 3", domain.Command{Kind: domain.CommandUse, Target: domain.Target{Slot: 3}}},
		{"use #ab12cd", domain.Command{Kind: domain.CommandUse, Target: domain.Target{TicketCode: "AB12CD"}}},
		{"Use # AB12CD", domain.Command{Kind: domain.CommandUse, Target: domain.Target{TicketCode: "AB12CD"}}},
		{"who", domain.Command{Kind: domain.CommandWho}},
		{"stop", domain.Command{Kind: domain.CommandStop}},
		{"end", domain.Command{Kind: domain.CommandClose, Notify: true}},
		{"end 2", domain.Command{Kind: domain.CommandClose, Target: domain.Target{Slot: 2}, Notify: true}},
		{"bot #F00BA4", domain.Command{Kind: domain.CommandClose, Target: domain.Target{TicketCode: "F00BA4"}}},
		{"BOT", domain.Command{Kind: domain.CommandClose}},
		{"1 Hola, en que puedo ayudarte", domain.Command{Kind: domain.CommandReply, Target: domain.Target{Slot: 1}, Text: "Hola, en que puedo ayudarte"}},
		{"r #ab12cd Gracias", domain.Command{Kind: domain.CommandReply, Target: domain.Target{TicketCode: "AB12CD"}, Text: "Gracias"}},
		{"R 4 Ya le envío", domain.Command{Kind: domain.CommandReply, Target: domain.Target{Slot: 4}, Text: "Ya le envío"}},
		{"r Claro, Use el producto", domain.Command{Kind: domain.CommandReply, Text: "Claro, Use el producto"}},
		{"2?", domain.Command{Kind: domain.CommandDetail, Target: domain.Target{Slot: 2}}},
		{"2 ?", domain.Command{Kind: domain.CommandDetail, Target: domain.Target{Slot: 2}}},
		{"2 ¿precio?", domain.Command{Kind: domain.CommandReply, Target: domain.Target{Slot: 2}, Text: "¿precio?"}},
		{"use 0", domain.Command{Kind: domain.CommandUse, Target: domain.Target{Slot: -1}}},
		{"hola", domain.Command{Kind: domain.CommandHelp}},
		{"use", domain.Command{Kind: domain.CommandHelp}},
		{"", domain.Command{Kind: domain.CommandHelp}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCommand(tt.input)
			got.Raw = ""
			if got != tt.expected {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseCommand_KeepsMultilineReply(t *testing.T) {
	got := ParseCommand("3 Linea uno\nLinea dos")
	if got.Kind != domain.CommandReply || got.Text != "Linea uno\nLinea dos" {
		t.Errorf("Expected multiline reply preserved, got %+v", got)
	}
	if got.Raw != "3 Linea uno\nLinea dos" {
		t.Errorf("Expected raw text kept, got %q", got.Raw)
	}
}
