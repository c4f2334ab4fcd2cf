package authority

import (
	"context"
	"fmt"

	"github.com/shirogane-dev/handseal/metrics"
	"github.com/shirogane-dev/handseal/types"
)

// TokenBroker obtains one-time run tokens from the authority, or reuses a
// token already embedded in a proof. Run tokens bind a proof to a specific
// attempt and prevent an old proof replaying as a new run.
type TokenBroker struct {
	router    *Router
	identity  string
	collector *metrics.Collector
}

// NewTokenBroker creates a broker for the given identity.
func NewTokenBroker(router *Router, identity string, collector *metrics.Collector) *TokenBroker {
	return &TokenBroker{router: router, identity: identity, collector: collector}
}

// Resolve returns the run token for a proof, issuing a fresh one from the
// authority when the proof does not already carry one. The returned source
// records provenance for diagnostics.
func (b *TokenBroker) Resolve(ctx context.Context, proof *types.Proof, mode types.Mode) (token, source string, err error) {
	if proof.RunToken != "" {
		b.collector.IncTokenReused()
		source = proof.TokenSource
		if source == "" {
			source = types.TokenSourceEmbedded
		}
		return proof.RunToken, source, nil
	}

	resp, _, err := b.router.Call(ctx, ProcIssueToken, map[string]any{
		"identity":          b.identity,
		"mode":              string(mode),
		"client_started_at": proof.ClientStartedAt,
	})
	if err != nil {
		b.collector.IncTokenIssueFailed()
		return "", "", fmt.Errorf("issue run token: %w", err)
	}

	issued, _ := resp["token"].(string)
	if issued == "" {
		b.collector.IncTokenIssueFailed()
		return "", "", &RPCError{
			Proc:    ProcIssueToken.Primary,
			Message: "authority response carried no token",
		}
	}

	b.collector.IncTokenIssued()
	return issued, types.TokenSourceIssued, nil
}
