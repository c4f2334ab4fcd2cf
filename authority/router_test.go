package authority

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedInvoker returns canned responses per procedure name and records
// call order.
type scriptedInvoker struct {
	responses map[string]map[string]any
	errors    map[string]error
	calls     []string
	payloads  []map[string]any
}

func (s *scriptedInvoker) Invoke(_ context.Context, proc string, payload map[string]any) (map[string]any, error) {
	s.calls = append(s.calls, proc)
	s.payloads = append(s.payloads, payload)
	if err, ok := s.errors[proc]; ok {
		return nil, err
	}
	if resp, ok := s.responses[proc]; ok {
		return resp, nil
	}
	return map[string]any{}, nil
}

func newTestRouter(t *testing.T, invoker Invoker) *Router {
	t.Helper()
	router, err := NewRouter(invoker, nil, nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router
}

func TestRouterPrimarySucceeds(t *testing.T) {
	invoker := &scriptedInvoker{
		responses: map[string]map[string]any{
			"secure_submit_run": {"status": "accepted"},
		},
	}
	router := newTestRouter(t, invoker)

	resp, path, err := router.Call(context.Background(), ProcSubmitRun, map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if path != PathPrimary {
		t.Errorf("path = %s, want primary", path)
	}
	if resp["status"] != "accepted" {
		t.Errorf("resp = %v", resp)
	}
	if len(invoker.calls) != 1 {
		t.Errorf("calls = %v, want single primary call", invoker.calls)
	}
}

func TestRouterFallsBackOnAllowlistedFailure(t *testing.T) {
	tests := []struct {
		name       string
		primaryErr error
	}{
		{"missing procedure", &RPCError{Proc: "secure_submit_run", Message: "function does not exist"}},
		{"renamed procedure", &RPCError{Proc: "secure_submit_run", Message: "unknown function secure_submit_run"}},
		{"permission denied", &RPCError{Proc: "secure_submit_run", Message: "permission denied for function"}},
		{"identity binding", &RPCError{Proc: "secure_submit_run", Message: "identity mismatch for caller"}},
		{"structured code", &RPCError{Proc: "secure_submit_run", Code: "proc_not_found", Message: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &scriptedInvoker{
				errors: map[string]error{"secure_submit_run": tt.primaryErr},
				responses: map[string]map[string]any{
					"submit_run_secure": {"status": "accepted"},
				},
			}
			router := newTestRouter(t, invoker)

			payload := map[string]any{"token": "tok-1"}
			resp, path, err := router.Call(context.Background(), ProcSubmitRun, payload)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if path != PathLegacy {
				t.Errorf("path = %s, want legacy", path)
			}
			if resp["status"] != "accepted" {
				t.Errorf("resp = %v", resp)
			}
			// Identical payload must be replayed to the legacy name.
			if len(invoker.payloads) != 2 || invoker.payloads[1]["token"] != "tok-1" {
				t.Errorf("legacy payload = %v, want same payload", invoker.payloads)
			}
		})
	}
}

func TestRouterNoFallbackOnOtherFailures(t *testing.T) {
	invoker := &scriptedInvoker{
		errors: map[string]error{
			"secure_submit_run": &RPCError{Proc: "secure_submit_run", Message: "proof rejected"},
		},
	}
	router := newTestRouter(t, invoker)

	_, path, err := router.Call(context.Background(), ProcSubmitRun, nil)
	if err == nil {
		t.Fatal("Call succeeded, want error")
	}
	if path != PathPrimary {
		t.Errorf("path = %s, want primary", path)
	}
	if len(invoker.calls) != 1 {
		t.Errorf("calls = %v, want only primary attempt", invoker.calls)
	}
}

func TestRouterMergesBothFailures(t *testing.T) {
	invoker := &scriptedInvoker{
		errors: map[string]error{
			"secure_submit_run": &RPCError{Proc: "secure_submit_run", Message: "function does not exist"},
			"submit_run_secure": errors.New("request timed out"),
		},
	}
	router := newTestRouter(t, invoker)

	_, _, err := router.Call(context.Background(), ProcSubmitRun, nil)
	if err == nil {
		t.Fatal("Call succeeded, want merged error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "does not exist") || !strings.Contains(msg, "timed out") {
		t.Errorf("merged error lost detail: %q", msg)
	}
	// The primary error stays in the chain for structured classification.
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Error("merged error does not unwrap to the primary RPCError")
	}
}
