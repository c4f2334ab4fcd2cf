package types

// Reason is a stable rejection code produced by the proof validator.
// Reasons are permanent: a log rejected with any of these codes is never
// retried and never queued.
type Reason string

// Validator rejection codes.
const (
	ReasonMissingProof           Reason = "missing_proof"
	ReasonMissingEvents          Reason = "missing_events"
	ReasonEventLimitExceeded     Reason = "event_limit_exceeded"
	ReasonInvalidExpectedSigns   Reason = "invalid_expected_signs"
	ReasonJutsuSequenceMismatch  Reason = "jutsu_sequence_mismatch"
	ReasonInvalidStartedAt       Reason = "invalid_started_at"
	ReasonStartedInFuture        Reason = "started_in_future"
	ReasonStaleRun               Reason = "stale_run"
	ReasonCooldownOutOfRange     Reason = "cooldown_out_of_range"
	ReasonVoteHitsOutOfRange     Reason = "vote_required_hits_out_of_range"
	ReasonVoteConfOutOfRange     Reason = "vote_min_confidence_out_of_range"
	ReasonInvalidEventTime       Reason = "invalid_event_time"
	ReasonNonMonotonicTime       Reason = "non_monotonic_time"
	ReasonInvalidEventType       Reason = "invalid_event_type"
	ReasonDuplicateRunStart      Reason = "duplicate_run_start"
	ReasonModeMismatch           Reason = "mode_mismatch"
	ReasonExpectedSignsMismatch  Reason = "expected_signs_mismatch"
	ReasonSignBeforeStart        Reason = "sign_before_start"
	ReasonSignStepMismatch       Reason = "sign_step_mismatch"
	ReasonSignMissing            Reason = "sign_missing"
	ReasonSignSequenceMismatch   Reason = "sign_sequence_mismatch"
	ReasonSignGapTooShort        Reason = "sign_gap_too_short"
	ReasonFinishBeforeStart      Reason = "finish_before_start"
	ReasonMissingRunStart        Reason = "missing_run_start"
	ReasonInvalidRunFinish       Reason = "invalid_run_finish"
	ReasonInsufficientSignEvents Reason = "insufficient_sign_events"
	ReasonFinishBeforeLastSign   Reason = "finish_before_last_sign"
	ReasonOverflowMarkerMissing  Reason = "overflow_marker_missing"
	ReasonInvalidElapsedTime     Reason = "invalid_elapsed_time"
	ReasonFinishTimeMismatch     Reason = "finish_time_mismatch"
)

// ValidationResult is the derived outcome of one proof validation pass.
// Discarded after use.
type ValidationResult struct {
	// OK is true when the log passed every structural and temporal check.
	OK bool `json:"ok"`
	// Reason is the rejection code. Empty when OK.
	Reason Reason `json:"reason,omitempty"`
	// Detail is human-readable context for the rejection.
	Detail string `json:"detail,omitempty"`
	// Events is the number of events examined.
	Events int `json:"events"`
	// SignOKCount is the number of sign_ok events observed.
	SignOKCount int `json:"signOkCount"`
	// RunStartSec is the run_start timestamp, seconds since run start.
	RunStartSec float64 `json:"runStartSec"`
	// RunFinishSec is the run_finish timestamp, seconds since run start.
	RunFinishSec float64 `json:"runFinishSec"`
	// LastSignSec is the timestamp of the final sign_ok event.
	LastSignSec float64 `json:"lastSignSec"`
}
