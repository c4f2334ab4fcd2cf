// Package webhook delivers run-recorded events to an HTTP endpoint.
//
// Each event is POSTed as JSON. Transient failures (network errors and
// 5xx responses) are retried with exponential backoff; 4xx responses
// fail the publish immediately since resending the same payload cannot
// change the answer.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shirogane-dev/handseal/adapter"
	"github.com/shirogane-dev/handseal/iox"
)

// DefaultTimeout bounds a single POST when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the retry count used when the config leaves it unset.
const DefaultRetries = 3

// base delay for the exponential backoff between attempts.
const backoffUnit = 500 * time.Millisecond

// Config configures the webhook adapter.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are added to every request, e.g. an Authorization header.
	Headers map[string]string
	// Timeout bounds each individual request.
	Timeout time.Duration
	// Retries is how many times a failed publish is re-attempted.
	Retries int
}

// StatusError reports a non-2xx response. Callers inspect Code to tell
// retriable 5xx failures from permanent 4xx ones.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Adapter posts run-recorded events to a single configured URL.
type Adapter struct {
	config Config
	client *http.Client
}

// New validates cfg and builds the adapter. The URL is mandatory.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish POSTs event as JSON, retrying transient failures until the
// attempt budget is spent.
func (a *Adapter) Publish(ctx context.Context, event *adapter.RunRecordedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	attempts := 1 + a.config.Retries
	var lastErr error

	for i := range attempts {
		if i > 0 {
			if err := adapter.Backoff(ctx, i, backoffUnit); err != nil {
				return fmt.Errorf("webhook: context canceled during backoff: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("webhook: context canceled: %w", err)
		}

		lastErr = a.post(ctx, event.RunHash, body)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
			return fmt.Errorf("webhook: non-retriable error: %w", lastErr)
		}
	}

	return fmt.Errorf("webhook: failed after %d attempts: %w", attempts, lastErr)
}

// post performs one POST. The run hash rides along in a header so the
// receiver can deduplicate replayed deliveries without parsing the body.
func (a *Adapter) post(ctx context.Context, runHash string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if runHash != "" {
		req.Header.Set("X-Handseal-Run-Hash", runHash)
	}
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close drops idle connections held by the HTTP client.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
