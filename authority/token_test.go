package authority

import (
	"context"
	"testing"

	"github.com/shirogane-dev/handseal/types"
)

func TestTokenBrokerReusesEmbeddedToken(t *testing.T) {
	invoker := &scriptedInvoker{}
	broker := NewTokenBroker(newTestRouter(t, invoker), "player-1", nil)

	proof := &types.Proof{RunToken: "tok-9", TokenSource: "issued"}
	token, source, err := broker.Resolve(context.Background(), proof, types.ModeRank)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if token != "tok-9" || source != "issued" {
		t.Errorf("Resolve = (%q, %q), want (tok-9, issued)", token, source)
	}
	if len(invoker.calls) != 0 {
		t.Errorf("broker called authority despite embedded token: %v", invoker.calls)
	}
}

func TestTokenBrokerIssuesToken(t *testing.T) {
	invoker := &scriptedInvoker{
		responses: map[string]map[string]any{
			"secure_issue_run_token": {"token": "tok-new"},
		},
	}
	broker := NewTokenBroker(newTestRouter(t, invoker), "player-1", nil)

	proof := &types.Proof{ClientStartedAt: "2026-08-30T10:00:00Z"}
	token, source, err := broker.Resolve(context.Background(), proof, types.ModeRank)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if token != "tok-new" || source != types.TokenSourceIssued {
		t.Errorf("Resolve = (%q, %q), want (tok-new, issued)", token, source)
	}

	payload := invoker.payloads[0]
	if payload["identity"] != "player-1" || payload["mode"] != "rank" {
		t.Errorf("issue payload = %v", payload)
	}
}

func TestTokenBrokerEmptyTokenIsError(t *testing.T) {
	invoker := &scriptedInvoker{
		responses: map[string]map[string]any{
			"secure_issue_run_token": {},
		},
	}
	broker := NewTokenBroker(newTestRouter(t, invoker), "player-1", nil)

	_, _, err := broker.Resolve(context.Background(), &types.Proof{}, types.ModeRank)
	if err == nil {
		t.Fatal("Resolve succeeded with no token in response")
	}
}
