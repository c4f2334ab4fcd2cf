package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shirogane-dev/handseal/iox"
)

// DefaultHTTPTimeout is the default per-call timeout.
const DefaultHTTPTimeout = 10 * time.Second

// HTTPConfig configures the HTTP invoker.
type HTTPConfig struct {
	// Endpoint is the authority base URL (required). Procedures are
	// POSTed to Endpoint + "/rpc/" + proc.
	Endpoint string
	// Headers are custom HTTP headers added to each request
	// (authorization, API keys).
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
}

// HTTPInvoker calls authority procedures as JSON POST requests.
//
// Wire shape: request body is the payload object; responses are
//
//	{"ok": true, "result": {...}}
//	{"ok": false, "error": {"code": "...", "message": "..."}}
type HTTPInvoker struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPInvoker creates an HTTP invoker from the given config.
// Returns an error if the endpoint is empty.
func NewHTTPInvoker(cfg HTTPConfig) (*HTTPInvoker, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("http invoker requires an endpoint")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPTimeout
	}
	return &HTTPInvoker{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// rpcEnvelope is the authority's response envelope.
type rpcEnvelope struct {
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke POSTs the payload to the named procedure and decodes the
// response envelope. No retry here: retry policy belongs to the caller's
// classification, not the transport.
func (h *HTTPInvoker) Invoke(ctx context.Context, proc string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RPCError{Proc: proc, Message: "marshal payload", Err: err}
	}

	url := h.config.Endpoint + "/rpc/" + proc
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RPCError{Proc: proc, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &RPCError{Proc: proc, Err: err}
	}
	defer iox.DiscardClose(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RPCError{Proc: proc, Message: "read response", Err: err}
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &RPCError{Proc: proc,
				Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
		}
		return nil, &RPCError{Proc: proc, Message: "decode response", Err: err}
	}

	if !envelope.OK {
		rpcErr := &RPCError{Proc: proc}
		if envelope.Error != nil {
			rpcErr.Code = envelope.Error.Code
			rpcErr.Message = envelope.Error.Message
		} else {
			rpcErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, rpcErr
	}

	if envelope.Result == nil {
		return map[string]any{}, nil
	}
	return envelope.Result, nil
}
