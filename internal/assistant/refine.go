// Package assistant calls the prompt-refinement endpoint used by the
// ask-assistant menu action.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/anyclick/anyclick/capture"
)

// ErrNotConfigured is returned when no refine endpoint is set.
var ErrNotConfigured = errors.New("assistant: no endpoint configured")

// Request is the refine call input.
type Request struct {
	SelectedText string                 `json:"selectedText"`
	Context      capture.ElementContext `json:"context"`
	SystemPrompt string                 `json:"systemPrompt,omitempty"`
}

// Response is the refine call output.
type Response struct {
	RefinedPrompt string `json:"refinedPrompt"`
}

// Client talks to the refine endpoint.
type Client struct {
	endpoint     string
	systemPrompt string
	http         *http.Client
	logger       *slog.Logger
}

// ClientConfig for creating a Client.
type ClientConfig struct {
	Endpoint     string
	SystemPrompt string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		systemPrompt: cfg.SystemPrompt,
		http:         &http.Client{Timeout: cfg.Timeout},
		logger:       cfg.Logger,
	}
}

// Refine posts the selected text plus element context and returns the
// refined prompt.
func (c *Client) Refine(ctx context.Context, req Request) (Response, error) {
	if c.endpoint == "" {
		return Response{}, ErrNotConfigured
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = c.systemPrompt
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("assistant: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("assistant: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("assistant: refine call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, fmt.Errorf("assistant: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("assistant: refine: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("assistant: parse response: %w", err)
	}
	if out.RefinedPrompt == "" {
		return Response{}, fmt.Errorf("assistant: empty refined prompt")
	}
	return out, nil
}
