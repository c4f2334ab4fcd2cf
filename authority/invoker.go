// Package authority is the remote boundary of the submission subsystem.
//
// The authority exposes named procedures (issue-token, submit-run,
// read-rank). Each may be reachable under a current and a legacy name; the
// Router in this package handles that fallback so the authority can evolve
// its interface without breaking already-deployed clients.
package authority

import (
	"context"
	"fmt"
)

// Invoker calls a named remote procedure with a payload.
// Implementations must respect context cancellation and deadlines.
// Remote failures should be returned as *RPCError so classification can
// use the structured code before falling back to message vocabulary.
type Invoker interface {
	Invoke(ctx context.Context, proc string, payload map[string]any) (map[string]any, error)
}

// RPCError is a failure reported by the authority for a named procedure.
// Code carries the authority's structured error code when one was present
// in the response; it is empty for transport-level failures.
type RPCError struct {
	// Proc is the procedure name that failed.
	Proc string
	// Code is the structured error code, if the authority sent one.
	Code string
	// Message is the human-readable failure description.
	Message string
	// Err is the underlying transport error, if any.
	Err error
}

func (e *RPCError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Proc, e.Code, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Proc, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Proc, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *RPCError) Unwrap() error {
	return e.Err
}

// ProcPair names one logical authority call under its current and legacy
// procedure names.
type ProcPair struct {
	Primary string
	Legacy  string
}

// The three logical authority calls consumed by this subsystem.
var (
	// ProcIssueToken issues a one-time run token.
	ProcIssueToken = ProcPair{Primary: "secure_issue_run_token", Legacy: "issue_run_token"}
	// ProcSubmitRun records a verified run.
	ProcSubmitRun = ProcPair{Primary: "secure_submit_run", Legacy: "submit_run_secure"}
	// ProcReadRank reads a best-effort rank string.
	ProcReadRank = ProcPair{Primary: "get_rank_text", Legacy: "rank_text"}
)
