// Package client calls sibling services over their public HTTP API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/my-basket/internal/middleware"
)

const defaultTimeout = 5 * time.Second

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type base struct {
	baseURL    string
	httpClient *http.Client
}

func newBase(cfg Config) base {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return base{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends the request, forwarding the caller's trace id. The caller closes the body.
func (b base) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if traceID := middleware.TraceID(ctx); traceID != "" {
		req.Header.Set(middleware.TraceHeader, traceID)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	return fmt.Errorf("request failed: %s - %s", resp.Status, strings.TrimSpace(string(body)))
}
