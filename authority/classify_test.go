package authority

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Class
	}{
		// transient
		{"offline", "client is offline", ClassTransient},
		{"network error", "network request failed", ClassTransient},
		{"timeout", "connection timeout after 30s", ClassTransient},
		{"timed out", "operation timed out", ClassTransient},
		{"deadline", "context deadline exceeded", ClassTransient},
		{"connection refused", "dial tcp 10.0.0.1:443: connection refused", ClassTransient},
		{"unreachable", "network unreachable", ClassTransient},
		{"fetch failed", "TypeError: fetch failed", ClassTransient},
		{"gateway", "received status 503", ClassTransient},

		// duplicate
		{"already exists", "run already exists for this token", ClassDuplicate},
		{"already recorded", "attempt already recorded", ClassDuplicate},
		{"duplicate", "duplicate submission", ClassDuplicate},
		{"token used", "run token already used", ClassDuplicate},
		{"replay", "replay detected", ClassDuplicate},

		// permanent
		{"invalid proof", "proof rejected: hash mismatch", ClassPermanent},
		{"banned", "account suspended", ClassPermanent},
		{"empty", "", ClassPermanent},
		{"generic", "internal error", ClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyMessage(tt.message); got != tt.want {
				t.Errorf("ClassifyMessage(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyStructuredCodeWinsOverMessage(t *testing.T) {
	// The message alone would classify as permanent; the structured code
	// must take precedence.
	err := &RPCError{Proc: "secure_submit_run", Code: "duplicate", Message: "rejected"}
	if got := Classify(err); got != ClassDuplicate {
		t.Errorf("Classify() = %s, want duplicate", got)
	}

	err = &RPCError{Proc: "secure_submit_run", Code: "offline", Message: "rejected"}
	if got := Classify(err); got != ClassTransient {
		t.Errorf("Classify() = %s, want transient", got)
	}
}

func TestClassifyUnknownCodeFallsBackToMessage(t *testing.T) {
	err := &RPCError{Proc: "secure_submit_run", Code: "err_42", Message: "request timed out"}
	if got := Classify(err); got != ClassTransient {
		t.Errorf("Classify() = %s, want transient via message vocabulary", got)
	}
}

func TestClassifyWrappedError(t *testing.T) {
	inner := &RPCError{Proc: "secure_submit_run", Code: "token_used", Message: "no"}
	wrapped := fmt.Errorf("submit run: %w", inner)
	if got := Classify(wrapped); got != ClassDuplicate {
		t.Errorf("Classify(wrapped) = %s, want duplicate", got)
	}
}

func TestClassifyDuplicateWinsOverTransient(t *testing.T) {
	// A message matching both vocabularies must resolve to duplicate:
	// treating an accepted run as retryable would double-submit.
	err := errors.New("network log: token already used")
	if got := Classify(err); got != ClassDuplicate {
		t.Errorf("Classify() = %s, want duplicate", got)
	}
}
