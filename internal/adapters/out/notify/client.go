// Package notify implements the NotificationGateway port against the
// messaging provider's HTTP API. Message bodies are rendered provider-side
// from a template name plus variables, so this client never carries copy.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for the messaging provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a messaging provider client.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type sendRequest struct {
	Channel  string            `json:"channel"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars,omitempty"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// SendSms sends a templated SMS.
func (c *Client) SendSms(ctx context.Context, phone string, template ports.Template, vars map[string]string) (ports.NotificationResult, error) {
	return c.send(ctx, sendRequest{
		Channel:  "sms",
		To:       phone,
		Template: string(template),
		Vars:     vars,
	})
}

// SendEmail sends a templated email.
func (c *Client) SendEmail(ctx context.Context, address string, template ports.Template, vars map[string]string) (ports.NotificationResult, error) {
	return c.send(ctx, sendRequest{
		Channel:  "email",
		To:       address,
		Template: string(template),
		Vars:     vars,
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) (ports.NotificationResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return ports.NotificationResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return ports.NotificationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.NotificationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.NotificationResult{}, fmt.Errorf("messaging provider returned status %d", resp.StatusCode)
	}

	var decoded sendResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.NotificationResult{}, err
	}

	return ports.NotificationResult{
		Success:           decoded.Success,
		ProviderMessageID: decoded.MessageID,
	}, nil
}
