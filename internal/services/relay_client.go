package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DispatchMessage is one ordered step in a dispatch payload. The relay, not
// this service, performs per-step scheduling and templating for steps after
// the first.
type DispatchMessage struct {
	Sequence int     `json:"sequence"`
	Delay    float64 `json:"delay"`
	Message  string  `json:"message"`
}

// DispatchPayload is the JSON body posted to an organization's relay URL.
// The execution id doubles as the correlation token for status callbacks.
type DispatchPayload struct {
	ExecutionID     string            `json:"executionId"`
	CampaignID      string            `json:"campaignId"`
	CampaignName    string            `json:"campaignName"`
	PhoneNumber     string            `json:"phoneNumber"`
	CustomerName    string            `json:"customerName"`
	AppointmentDate string            `json:"appointmentDate"`
	ServiceType     string            `json:"serviceType"`
	Variables       map[string]string `json:"variables"`
	Messages        []DispatchMessage `json:"messages"`
	NextSendAt      time.Time         `json:"nextSendAt"`
}

// RelayClient posts dispatch payloads to tenant-configured relay URLs
type RelayClient struct {
	client *http.Client
}

// NewRelayClient creates a relay client. The timeout only bounds resource
// use; the dispatch path never retries and never surfaces relay failures to
// the triggering business operation.
func NewRelayClient(timeout time.Duration) *RelayClient {
	return &RelayClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the dispatch payload to the relay URL
func (c *RelayClient) Send(ctx context.Context, relayURL string, payload *DispatchPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, relayURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Appointflow-Backend/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
