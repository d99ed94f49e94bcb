package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/Veraticus/scribe/internal/common"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends body to url and decodes a 200 response into out.
// Transport failures, 429 and 5xx come back Transient; other statuses Permanent.
func postJSON(ctx context.Context, httpClient *http.Client, provider, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return common.Transient(fmt.Errorf("%w: %s request failed: %w", common.ErrExtractionService, provider, err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.Transient(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(provider, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return common.Permanent(fmt.Errorf("failed to parse %s response: %w", provider, err))
	}
	return nil
}

func statusError(provider string, status int, body []byte) error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	err := fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))

	switch {
	case status == http.StatusTooManyRequests:
		return common.Transient(fmt.Errorf("%w: %w", common.ErrRateLimit, err))
	case status >= http.StatusInternalServerError:
		return common.Transient(fmt.Errorf("%w: %w", common.ErrExtractionService, err))
	default:
		return common.Permanent(err)
	}
}
