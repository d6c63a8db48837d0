package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/procampo/whatsapp-bridge/internal/api"
	"github.com/procampo/whatsapp-bridge/internal/biz/domain"
)

// Client is the HTTP client for the bridge's local API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ============ Sessions ============

// ListSessions lists occupied slots
func (c *Client) ListSessions(ctx context.Context) ([]api.Session, error) {
	var result struct {
		Sessions []api.Session `json:"sessions"`
	}
	if err := c.get(ctx, "/api/sessions", &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// GetSession gets the session in a slot
func (c *Client) GetSession(ctx context.Context, slot int) (*api.Session, error) {
	var session api.Session
	if err := c.get(ctx, fmt.Sprintf("/api/sessions/%d", slot), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Reply sends a message to the customer in a slot
func (c *Client) Reply(ctx context.Context, slot int, text string) (*api.Session, error) {
	var session api.Session
	if err := c.post(ctx, fmt.Sprintf("/api/sessions/%d/reply", slot), api.ReplyRequest{Text: text}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Close ends the handoff in a slot
func (c *Client) Close(ctx context.Context, slot int, notify bool) (*api.CloseResponse, error) {
	var resp api.CloseResponse
	if err := c.post(ctx, fmt.Sprintf("/api/sessions/%d/close", slot), api.CloseRequest{Notify: notify}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ============ Console ============

// Command runs an agent console command and returns its reply text
func (c *Client) Command(ctx context.Context, text string) (string, error) {
	var resp api.CommandResponse
	if err := c.post(ctx, "/api/command", api.CommandRequest{Text: text}, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

// ============ Audit ============

// AuditTrail lists a ticket's handoff events
func (c *Client) AuditTrail(ctx context.Context, ticketCode string, limit int) ([]domain.AuditEvent, error) {
	path := "/api/audit/" + url.PathEscape(domain.NormalizeTicketCode(ticketCode))
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var result struct {
		Events []domain.AuditEvent `json:"events"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
