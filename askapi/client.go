package askapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linanwx/askchat/logger"
)

const maxErrorBodyBytes = 4096

// ClientConfig configures a Client.
type ClientConfig struct {
	Endpoint   string        // full URL of the ask endpoint
	Timeout    time.Duration // zero means no timeout
	HTTPClient *http.Client  // optional, overrides Timeout
}

// Client sends questions to an ask endpoint. It implements chat.Asker.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient validates the endpoint and returns a client.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ask endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid ask endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid ask endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid ask endpoint %q: missing host", endpoint)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{endpoint: endpoint, httpClient: hc}, nil
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask posts the raw question and returns the answer field of the response.
// All failures wrap ErrRequestFailed.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	start := time.Now()

	body, err := EncodeQuestion(question)
	if err != nil {
		return "", fmt.Errorf("%w: encode question: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("ask request", "endpoint", c.endpoint, "questionChars", len(question))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	answer, err := DecodeAnswer(respBody)
	if err != nil {
		return "", err
	}

	logger.Debug(
		"ask response",
		"endpoint", c.endpoint,
		"status", resp.StatusCode,
		"answerChars", len(answer),
		"latencyMs", time.Since(start).Milliseconds(),
	)
	return answer, nil
}
