// Package deviantart wraps the outbound DeviantArt publishing calls the
// worker makes. There is no official Go SDK, so this is a thin JSON client
// over net/http.
package deviantart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Publisher is what the worker depends on; tests swap in a fake.
type Publisher interface {
	PublishDeviation(ctx context.Context, userID int, deviationURL, title string) error
	CreateSale(ctx context.Context, userID, deviationID, priceCents int, currency string) error
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("deviantart: %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) PublishDeviation(ctx context.Context, userID int, deviationURL, title string) error {
	return c.post(ctx, "/stash/publish", map[string]any{
		"user_id": userID,
		"url":     deviationURL,
		"title":   title,
	})
}

func (c *Client) CreateSale(ctx context.Context, userID, deviationID, priceCents int, currency string) error {
	return c.post(ctx, "/sales/exclusive", map[string]any{
		"user_id":      userID,
		"deviation_id": deviationID,
		"price_cents":  priceCents,
		"currency":     currency,
	})
}
