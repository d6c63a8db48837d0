package repo

import (
	"context"
	"errors"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

// ErrDeliveryWindow matches send errors caused by the 24h customer service
// window or a missing permission. A template may still get through.
var ErrDeliveryWindow = errors.New("outside messaging window")

// MessengerRepo is the outbound delivery interface
// Implemented by the WhatsApp Cloud API client
type MessengerRepo interface {
	// SendText sends a plain text message
	SendText(ctx context.Context, to, body string) error

	// SendDocument sends a document by link
	SendDocument(ctx context.Context, to string, doc domain.Document) error

	// SendTemplate sends a pre-approved template, usable outside the 24h window
	SendTemplate(ctx context.Context, to, name, lang string, params []string) error
}
