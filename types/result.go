package types

import (
	"errors"
	"fmt"
	"math"
)

// Mode is the run mode discriminant.
type Mode string

const (
	// ModeRank is a ranked run. Rank runs carry a proof and are gated by
	// secure submission.
	ModeRank Mode = "rank"
	// ModeFree is a free practice run. Free runs bypass secure submission.
	ModeFree Mode = "free"
)

// Known returns true if this is a recognized run mode.
func (m Mode) Known() bool {
	return m == ModeRank || m == ModeFree
}

// RunResult is one completed attempt as produced by the run engine.
// Produced once per attempt; consumed exactly once by the Coordinator.
type RunResult struct {
	// Mode is the run mode.
	Mode Mode `msgpack:"mode" json:"mode"`
	// Jutsu is the jutsu name attempted.
	Jutsu string `msgpack:"jutsu" json:"jutsuName"`
	// SignsLanded is the number of signs the recognizer accepted.
	SignsLanded int `msgpack:"signs_landed" json:"signsLanded"`
	// ExpectedSigns is the canonical sequence length for the jutsu.
	ExpectedSigns int `msgpack:"expected_signs" json:"expectedSigns"`
	// ElapsedSeconds is the run duration as scored. Must be > 0.
	ElapsedSeconds float64 `msgpack:"elapsed_seconds" json:"elapsedSeconds"`
	// Proof is the recorded event log. Required for rank mode.
	Proof *Proof `msgpack:"proof,omitempty" json:"proof,omitempty"`
}

// Validate checks the structural minimum for a result to be processed.
// Full proof validation is the validator's job; this only rejects results
// that cannot even be fingerprinted or routed.
func (r *RunResult) Validate() error {
	if !r.Mode.Known() {
		return fmt.Errorf("unknown run mode %q", r.Mode)
	}
	if r.Jutsu == "" {
		return errors.New("jutsu name must be non-empty")
	}
	if r.Mode == ModeRank && r.Proof == nil {
		return errors.New("rank result must carry a proof")
	}
	return nil
}

// Fingerprint returns a stable dedup identity for this attempt.
// Token-bearing results key on the token; tokenless results key on a
// composite of jutsu, declared start time, elapsed time at bounded
// precision, and expected sign count. Used purely for deduplication,
// never for authorization.
func (r *RunResult) Fingerprint() string {
	if r.Proof != nil && r.Proof.RunToken != "" {
		return "token:" + r.Proof.RunToken
	}
	startedAt := ""
	if r.Proof != nil {
		startedAt = r.Proof.ClientStartedAt
	}
	elapsed := r.ElapsedSeconds
	if math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		elapsed = 0
	}
	return fmt.Sprintf("run:%s:%s:%.2f:%d", r.Jutsu, startedAt, elapsed, r.ExpectedSigns)
}

// SubmissionOutcome is the typed result of one submission attempt.
// Every path through the Coordinator returns one of these; nothing is
// thrown past the Coordinator boundary.
type SubmissionOutcome struct {
	// OK is true when the run was accepted (or already recorded).
	OK bool `json:"ok"`
	// Retryable is true when a failed submission should be queued for
	// replay rather than surfaced as a permanent rejection.
	Retryable bool `json:"retryable"`
	// Reason is a stable machine-readable classification code.
	Reason string `json:"reason,omitempty"`
	// StatusText is a short human-readable status.
	StatusText string `json:"statusText,omitempty"`
	// DetailText carries diagnostic detail for logs and support.
	DetailText string `json:"detailText,omitempty"`
	// RankText is a best-effort rank string from a secondary read.
	// Empty when the read failed; never affects OK.
	RankText string `json:"rankText,omitempty"`
}

// Coordinator-level outcome reason codes. Validation rejections carry the
// validator's reason code instead.
const (
	// ReasonAccepted means the authority recorded the run.
	ReasonAccepted = "accepted"
	// ReasonDuplicate means the authority had already recorded the run.
	// Treated as success.
	ReasonDuplicate = "duplicate"
	// ReasonNetwork means the submission failed for a transient reason
	// and should be queued for replay.
	ReasonNetwork = "network"
	// ReasonRejected means the authority permanently rejected the run.
	ReasonRejected = "rejected"
	// ReasonTokenIssueFailed means a run token could not be obtained.
	ReasonTokenIssueFailed = "token_issue_failed"
)
