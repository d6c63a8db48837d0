package data

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
	"github.com/procampo/whatsapp-bridge/internal/biz/repo"
)

// Graph error codes meaning the free-form message cannot be delivered now
// (outside the 24h customer service window or missing permission)
var windowErrorCodes = map[int]bool{
	131047: true, // re-engagement message
	131026: true, // message undeliverable
	470:    true, // legacy re-engagement
	10:     true, // permission denied
}

// APIError is a non-2xx response from the Graph API
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api: status %d code %d/%d: %s", e.StatusCode, e.Code, e.Subcode, e.Message)
}

// Is lets errors.Is(err, repo.ErrDeliveryWindow) match window rejections
func (e *APIError) Is(target error) bool {
	return target == repo.ErrDeliveryWindow && windowErrorCodes[e.Code]
}

// IsWindowError reports whether err is a messaging-window or permission rejection
func IsWindowError(err error) bool {
	return errors.Is(err, repo.ErrDeliveryWindow)
}

// WhatsAppOptions configures the Cloud API client
type WhatsAppOptions struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
	SendRPS       int
	HTTPClient    *http.Client
}

// whatsappRepo implements the Messenger repository over the Cloud API
type whatsappRepo struct {
	token      string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewWhatsAppRepo creates a WhatsApp Cloud API repository
func NewWhatsAppRepo(opts WhatsAppOptions, log zerolog.Logger) repo.MessengerRepo {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.SendRPS < 1 {
		opts.SendRPS = 20
	}
	return &whatsappRepo{
		token:      opts.Token,
		endpoint:   fmt.Sprintf("%s/%s/%s/messages", opts.BaseURL, opts.APIVersion, opts.PhoneNumberID),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.SendRPS), opts.SendRPS),
		log:        log.With().Str("component", "WhatsApp").Logger(),
	}
}

// SendText sends a free-form text message
func (r *whatsappRepo) SendText(ctx context.Context, to, body string) error {
	return r.send(ctx, &whatsappMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &whatsappText{Body: body},
	})
}

// SendDocument sends a document by link
func (r *whatsappRepo) SendDocument(ctx context.Context, to string, doc domain.Document) error {
	return r.send(ctx, &whatsappMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "document",
		Document: &whatsappDocument{
			Link:     doc.Link,
			Filename: doc.Filename,
			Caption:  doc.Caption,
		},
	})
}

// SendTemplate sends a pre-approved template with body parameters
func (r *whatsappRepo) SendTemplate(ctx context.Context, to, name, lang string, params []string) error {
	tmpl := &whatsappTemplate{
		Name:     name,
		Language: whatsappLanguage{Code: lang},
	}
	if len(params) > 0 {
		component := whatsappTemplateComponent{Type: "body"}
		for _, p := range params {
			component.Parameters = append(component.Parameters, whatsappTemplateParameter{Type: "text", Text: p})
		}
		tmpl.Components = []whatsappTemplateComponent{component}
	}
	return r.send(ctx, &whatsappMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template:         tmpl,
	})
}

func (r *whatsappRepo) send(ctx context.Context, msg *whatsappMessage) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, body)
	}

	var sendResp whatsappSendResponse
	if err := json.Unmarshal(body, &sendResp); err == nil && len(sendResp.Messages) > 0 {
		r.log.Debug().Str("to", msg.To).Str("type", msg.Type).Str("wamid", sendResp.Messages[0].ID).Msg("sent")
	}
	return nil
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var errResp whatsappErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Code != 0 {
		apiErr.Code = errResp.Error.Code
		apiErr.Subcode = errResp.Error.ErrorSubcode
		apiErr.Message = errResp.Error.Message
		apiErr.TraceID = errResp.Error.FbtraceID
	}
	return apiErr
}

// ========== Cloud API wire structures ==========

type whatsappMessage struct {
	MessagingProduct string            `json:"messaging_product"`
	RecipientType    string            `json:"recipient_type"`
	To               string            `json:"to"`
	Type             string            `json:"type"`
	Text             *whatsappText     `json:"text,omitempty"`
	Document         *whatsappDocument `json:"document,omitempty"`
	Template         *whatsappTemplate `json:"template,omitempty"`
}

type whatsappText struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type whatsappDocument struct {
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type whatsappTemplate struct {
	Name       string                      `json:"name"`
	Language   whatsappLanguage            `json:"language"`
	Components []whatsappTemplateComponent `json:"components,omitempty"`
}

type whatsappLanguage struct {
	Code string `json:"code"`
}

type whatsappTemplateComponent struct {
	Type       string                      `json:"type"`
	Parameters []whatsappTemplateParameter `json:"parameters,omitempty"`
}

type whatsappTemplateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type whatsappSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type whatsappErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
