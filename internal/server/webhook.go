package server

import (
	"strconv"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

// ========== Webhook payload (Cloud API) ==========

type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []webhookContact  `json:"contacts,omitempty"`
	Messages         []incomingMessage `json:"messages,omitempty"`
	Statuses         []statusUpdate    `json:"statuses,omitempty"`
}

type webhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type incomingMessage struct {
	ID          string               `json:"id"`
	From        string               `json:"from"`
	Timestamp   string               `json:"timestamp"`
	Type        string               `json:"type"`
	Text        *incomingText        `json:"text,omitempty"`
	Interactive *incomingInteractive `json:"interactive,omitempty"`
	Button      *incomingButton      `json:"button,omitempty"`
}

type incomingText struct {
	Body string `json:"body"`
}

type incomingInteractive struct {
	Type        string `json:"type"`
	ButtonReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"button_reply,omitempty"`
	ListReply *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"list_reply,omitempty"`
}

type incomingButton struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type statusUpdate struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Recipient string `json:"recipient_id"`
}

// firstMessage extracts entry[0].changes[0].value.messages[0].
// Returns nil for status callbacks and malformed payloads.
func (p *webhookPayload) firstMessage() *domain.InboundMessage {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil
	}
	value := p.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil
	}
	m := value.Messages[0]
	if m.From == "" {
		return nil
	}

	msg := &domain.InboundMessage{
		ID:        m.ID,
		From:      m.From,
		Timestamp: parseTimestamp(m.Timestamp),
	}
	if len(value.Contacts) > 0 {
		msg.SenderName = value.Contacts[0].Profile.Name
	}

	switch m.Type {
	case "text":
		msg.Type = domain.MessageTypeText
		if m.Text != nil {
			msg.Text = m.Text.Body
		}
	case "interactive":
		msg.Type = domain.MessageTypeInteractive
		if in := m.Interactive; in != nil {
			switch {
			case in.ButtonReply != nil:
				msg.Text = in.ButtonReply.Title
			case in.ListReply != nil:
				msg.Text = in.ListReply.Title
			}
		}
	case "button":
		msg.Type = domain.MessageTypeButton
		if m.Button != nil {
			msg.Text = m.Button.Text
		}
	case "image":
		msg.Type = domain.MessageTypeImage
		msg.Text = placeholder(m.Type)
	case "audio":
		msg.Type = domain.MessageTypeAudio
		msg.Text = placeholder(m.Type)
	case "document":
		msg.Type = domain.MessageTypeDocument
		msg.Text = placeholder(m.Type)
	default:
		msg.Type = domain.MessageTypeOther
		msg.Text = placeholder(m.Type)
	}
	return msg
}

func placeholder(kind string) string {
	if kind == "" {
		kind = "desconocido"
	}
	return "[" + kind + "]"
}

func parseTimestamp(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return time.Now()
	}
	return time.Unix(sec, 0)
}
