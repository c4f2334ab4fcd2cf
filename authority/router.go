package authority

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/metrics"
)

// Path identifies which procedure name answered a routed call.
type Path string

const (
	// PathPrimary means the current procedure name answered.
	PathPrimary Path = "primary"
	// PathLegacy means the legacy procedure name answered.
	PathLegacy Path = "legacy"
)

// fallbackVocabulary is the fixed allowlist of failure conditions that
// justify retrying the same payload under the legacy procedure name:
// identity-binding mismatches, missing or renamed procedures, and
// permission errors that older deployments report differently.
var fallbackVocabulary = []string{
	"does not exist",
	"not found",
	"unknown function",
	"unknown procedure",
	"no such function",
	"not implemented",
	"permission denied",
	"not authorized",
	"identity mismatch",
	"user mismatch",
	"403",
}

// fallbackCodes are structured codes that justify the legacy retry.
var fallbackCodes = map[string]struct{}{
	"proc_not_found":    {},
	"permission_denied": {},
	"identity_mismatch": {},
}

// Router calls authority procedures with two-tier name fallback.
type Router struct {
	invoker   Invoker
	logger    *log.Logger
	collector *metrics.Collector
}

// NewRouter creates a Router over the given invoker.
// logger and collector may be nil.
func NewRouter(invoker Invoker, logger *log.Logger, collector *metrics.Collector) (*Router, error) {
	if invoker == nil {
		return nil, errors.New("router requires an invoker")
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Router{invoker: invoker, logger: logger, collector: collector}, nil
}

// Call invokes the pair's primary procedure; on an allowlisted failure it
// retries the identical payload under the legacy name. The returned Path
// records which name answered. When both names fail, the error merges
// diagnostic detail from both attempts so no failure information is
// silently dropped.
func (r *Router) Call(ctx context.Context, pair ProcPair, payload map[string]any) (map[string]any, Path, error) {
	resp, primaryErr := r.invoker.Invoke(ctx, pair.Primary, payload)
	if primaryErr == nil {
		return resp, PathPrimary, nil
	}

	if pair.Legacy == "" || !shouldFallBack(primaryErr) {
		return nil, PathPrimary, primaryErr
	}

	r.logger.Warn("primary procedure failed, retrying under legacy name", map[string]any{
		"primary": pair.Primary,
		"legacy":  pair.Legacy,
		"error":   primaryErr.Error(),
	})

	resp, legacyErr := r.invoker.Invoke(ctx, pair.Legacy, payload)
	if legacyErr == nil {
		r.collector.IncFallbackPathUsed()
		return resp, PathLegacy, nil
	}

	return nil, PathLegacy, fmt.Errorf("%s: %w (legacy %s: %v)",
		pair.Primary, primaryErr, pair.Legacy, legacyErr)
}

// shouldFallBack reports whether a primary failure is on the fallback
// allowlist.
func shouldFallBack(err error) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code != "" {
		if _, ok := fallbackCodes[strings.ToLower(rpcErr.Code)]; ok {
			return true
		}
	}

	lower := strings.ToLower(err.Error())
	for _, probe := range fallbackVocabulary {
		if strings.Contains(lower, probe) {
			return true
		}
	}
	return false
}
