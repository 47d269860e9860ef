// Package settle implements the SettlementService port against the
// payment processor's HTTP API. The processor deduplicates transfers by
// reference ID, so retried calls for the same route or order are safe.
package settle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the payment processor.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a payment processor client.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

type payoutRequest struct {
	Kind        string `json:"kind"`
	ReferenceID string `json:"referenceId"`
}

type payoutResponse struct {
	Success    bool    `json:"success"`
	Amount     float64 `json:"amount"`
	TransferID string  `json:"transferId"`
}

// ProcessRoutePayout transfers the payout for a completed route.
func (c *Client) ProcessRoutePayout(ctx context.Context, routeID kernel.UUID) (ports.SettlementResult, error) {
	return c.process(ctx, payoutRequest{Kind: "route", ReferenceID: routeID.String()})
}

// ProcessOrderPayout transfers the payout for a standalone order.
func (c *Client) ProcessOrderPayout(ctx context.Context, orderID kernel.UUID) (ports.SettlementResult, error) {
	return c.process(ctx, payoutRequest{Kind: "order", ReferenceID: orderID.String()})
}

func (c *Client) process(ctx context.Context, payload payoutRequest) (ports.SettlementResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return ports.SettlementResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payouts", bytes.NewReader(body))
	if err != nil {
		return ports.SettlementResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.SettlementResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.SettlementResult{}, fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}

	var decoded payoutResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.SettlementResult{}, err
	}

	return ports.SettlementResult{
		Success:    decoded.Success,
		Amount:     decoded.Amount,
		TransferID: decoded.TransferID,
	}, nil
}
