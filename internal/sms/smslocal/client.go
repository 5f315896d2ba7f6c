// Package smslocal sends messages through the SMSLocal HTTP gateway.
package smslocal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"milkbook/internal/sms"
)

// Client calls the gateway's send endpoint with the API key, message and
// destination number as query parameters.
type Client struct {
	baseURL     string
	apiKey      string
	countryCode string
	httpClient  *http.Client
}

func NewClient(baseURL, apiKey, countryCode string) *Client {
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		countryCode: countryCode,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, phone, message string) error {
	number, err := sms.NormalizePhone(phone, c.countryCode)
	if err != nil {
		return fmt.Errorf("normalize phone %q: %w", phone, err)
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("message", message)
	q.Set("numbers", number)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build SMS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("SMS gateway returned %d: %s", resp.StatusCode, string(body))
	}

	slog.InfoContext(ctx, "SMS sent",
		"phone", number,
		"length", len(message))

	return nil
}
