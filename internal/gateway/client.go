// Package gateway provides the outbound SMS gateway HTTP client.
//
// Delivery is delegated entirely to the external gateway; the engine never
// retries a failed send.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/threadlinehq/threadline/internal/config"
)

// Client posts outbound messages to the SMS gateway's /send-sms endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendResponse struct {
	Status string `json:"status"`
}

// NewClient creates a gateway client from config. The request timeout defaults
// to 5 seconds when unset.
func NewClient(log *slog.Logger, cfg config.GatewayConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     log.With(slog.String("service", "gateway")),
	}
}

// Send delivers one message to the given phone and returns the gateway's
// reported delivery status.
func (c *Client) Send(ctx context.Context, toPhone, message string) (string, error) {
	payload, err := json.Marshal(sendRequest{Phone: toPhone, Message: message})
	if err != nil {
		return "", fmt.Errorf("encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-sms", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gateway send: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Status == "" {
		// Gateways that return a bare 200 without a body still count as delivered.
		return "sent", nil
	}
	return parsed.Status, nil
}
