package domain

import "time"

// MessageType represents the inbound message type
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeInteractive MessageType = "interactive"
	MessageTypeButton      MessageType = "button"
	MessageTypeImage       MessageType = "image"
	MessageTypeAudio       MessageType = "audio"
	MessageTypeDocument    MessageType = "document"
	MessageTypeOther       MessageType = "other"
)

// InboundMessage is a message received through the webhook
type InboundMessage struct {
	ID         string
	From       string
	SenderName string
	Type       MessageType
	Text       string // body, button title, or a placeholder for media
	Timestamp  time.Time
}

// IsText reports whether the message carries typed text usable for keyword dispatch
func (m *InboundMessage) IsText() bool {
	switch m.Type {
	case MessageTypeText, MessageTypeInteractive, MessageTypeButton:
		return m.Text != ""
	}
	return false
}

// Document is an outbound document reference
type Document struct {
	Link     string
	Filename string
	Caption  string
}

// SessionView is a read-only snapshot of a ticket and its handoff state
type SessionView struct {
	TicketCode     string
	CustomerID     string
	DisplayName    string
	Active         bool
	Slot           int
	UnreadCount    int
	Pending        []PendingMessage
	StartedAt      time.Time
	LastCustomerAt time.Time
	LastAgentAt    time.Time
}

// Name returns the display name, falling back to the customer id
func (v *SessionView) Name() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.CustomerID
}
