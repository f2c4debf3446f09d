package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voice-advisor/internal/observability"
)

// EligibilityInput holds the parameters for a benefits-eligibility calculation.
// Field validation is owned by the remote service.
type EligibilityInput struct {
	PostalCode  string  `json:"postalCode"`
	Rent        float64 `json:"rent"`
	Income      float64 `json:"income"`
	NumAdults   int     `json:"numAdults"`
	NumChildren int     `json:"numChildren"`
}

// Client calls the external benefits-eligibility endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *observability.Logger
}

func New(endpoint string, logger *observability.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Compute POSTs the input to the eligibility endpoint and returns the raw JSON
// response as text. The response shape is owned by the remote service and is
// passed through unmodified.
func (c *Client) Compute(ctx context.Context, input EligibilityInput) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal eligibility input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create eligibility request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("eligibility request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read eligibility response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("eligibility endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Debug(ctx, fmt.Sprintf("Eligibility response: %s", string(respBody)))
	return string(respBody), nil
}
