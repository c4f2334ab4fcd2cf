// Package types defines core domain types for the handseal submission
// subsystem. Types are designed to match the recognizer client wire format.
//
//nolint:revive // types is a common Go package naming convention
package types

// Proof limits and detection threshold ranges. A proof whose thresholds
// fall outside these ranges is rejected by the validator.
const (
	// MaxProofEvents is the hard cap on recorded events per proof. Logs
	// longer than this must set EventOverflow and carry an overflow marker.
	MaxProofEvents = 256

	// CooldownMinMs / CooldownMaxMs bound the recognizer cooldown window.
	CooldownMinMs = 120
	CooldownMaxMs = 1200

	// VoteHitsMin / VoteHitsMax bound the recognizer vote window size.
	VoteHitsMin = 2
	VoteHitsMax = 3

	// VoteConfidenceMin / VoteConfidenceMax bound the recognizer
	// per-frame confidence threshold.
	VoteConfidenceMin = 0.2
	VoteConfidenceMax = 0.95
)

// TokenSource describes where a proof's run token came from.
const (
	// TokenSourceIssued means the token was issued for this attempt.
	TokenSourceIssued = "issued"
	// TokenSourceEmbedded means the token was already present in the proof.
	TokenSourceEmbedded = "embedded"
)

// Proof is the recorded event log and metadata attesting to how a run was
// performed. Owned exclusively by the RunResult that carries it; never
// mutated after creation, only sanitized when read back from storage.
type Proof struct {
	// RunToken is the one-time token binding this proof to an attempt.
	// Empty if no token has been issued yet.
	RunToken string `msgpack:"run_token" json:"runToken"`
	// TokenSource records token provenance for diagnostics.
	TokenSource string `msgpack:"token_source,omitempty" json:"tokenSource,omitempty"`
	// TokenIssueReason records why a token was (re)issued, if known.
	TokenIssueReason string `msgpack:"token_issue_reason,omitempty" json:"tokenIssueReason,omitempty"`
	// ClientStartedAt is the declared run start time in ISO 8601 UTC.
	ClientStartedAt string `msgpack:"client_started_at" json:"clientStartedAtIso"`
	// Events is the ordered event log.
	Events []ProofEvent `msgpack:"events" json:"events"`
	// EventOverflow is set when the client truncated the log at
	// MaxProofEvents.
	EventOverflow bool `msgpack:"event_overflow" json:"eventOverflow"`
	// CooldownMs is the recognizer cooldown actually used, in milliseconds.
	CooldownMs int `msgpack:"cooldown_ms" json:"cooldownMs"`
	// VoteRequiredHits is the recognizer vote window actually used.
	VoteRequiredHits int `msgpack:"vote_required_hits" json:"voteRequiredHits"`
	// VoteMinConfidence is the recognizer confidence floor actually used.
	VoteMinConfidence float64 `msgpack:"vote_min_confidence" json:"voteMinConfidence"`
	// RestrictedSigns is true when the recognizer was limited to the
	// jutsu's own sign vocabulary.
	RestrictedSigns bool `msgpack:"restricted_signs" json:"restrictedSigns"`
	// CameraIdx is the capture device index used.
	CameraIdx int `msgpack:"camera_idx" json:"cameraIdx"`
	// ResolutionIdx is the capture resolution preset index used.
	ResolutionIdx int `msgpack:"resolution_idx" json:"resolutionIdx"`
}
