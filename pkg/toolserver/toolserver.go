// Package toolserver is the HTTP client for the backend tool server. The
// server's transport is opaque to the core; this client only promises a
// request/response exchange per tool invocation.
package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tamersaada/Sofra-Conversational-Ordering/agent/contract"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	URL     string        `split_words:"true" required:"true"`
	Token   string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// Client posts tool requests to the tool server's /invoke endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ contractx.ToolBackend = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("tool server url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type wireResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
}

// Call sends one tool request. Transport failures come back as errors (the
// dispatcher treats them as transient); an HTTP 200 with status=error is the
// server's explicit verdict and is passed through as-is.
func (c *Client) Call(ctx context.Context, req contractx.ToolRequest) (contractx.ToolResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("marshal tool request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke", bytes.NewReader(body))
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("build tool request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("execute tool request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("read tool response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return contractx.ToolResult{}, fmt.Errorf("tool server http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed wireResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return contractx.ToolResult{}, fmt.Errorf("decode tool response: %w", err)
	}

	if parsed.Status != "ok" {
		return contractx.ToolResult{
			Tool:      req.Tool,
			Reason:    parsed.Reason,
			Retryable: parsed.Retryable,
		}, nil
	}

	var data any
	if len(parsed.Data) > 0 {
		if err := json.Unmarshal(parsed.Data, &data); err != nil {
			return contractx.ToolResult{}, fmt.Errorf("decode tool data: %w", err)
		}
	}
	return contractx.ToolResult{
		Tool: req.Tool,
		Data: data,
	}, nil
}
