// Package validate implements the proof validator: a single forward pass
// over a run's event log enforcing structural and temporal invariants.
//
// The checks here are a causal plausibility filter, not a cryptographic
// proof of human performance. They catch replayed, truncated, reordered,
// and speed-hacked logs; a perfectly fabricated log is the authority's
// problem, not this package's.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/shirogane-dev/handseal/jutsu"
	"github.com/shirogane-dev/handseal/types"
)

// Validation tolerances. Timestamps come from a client-side monotonic-ish
// clock sampled at frame granularity, so small slack is allowed.
const (
	// MinEventTime is the lowest acceptable event timestamp.
	MinEventTime = -0.001
	// MonotonicSlack is how far a timestamp may fall below the running
	// maximum before the log is rejected as reordered.
	MonotonicSlack = 0.015
	// MinSignGapFloor is the absolute lower bound on the gap between
	// consecutive recognized signs, in seconds.
	MinSignGapFloor = 0.05
	// FinishSlack is how far run_finish may precede the last sign.
	FinishSlack = 0.001
	// ElapsedTolerance is the allowed disagreement between the scored
	// elapsed time and the run_finish timestamp.
	ElapsedTolerance = 1.15
	// MaxFutureStart is how far in the future a declared start time may
	// be before the run is rejected (clock skew allowance).
	MaxFutureStart = 60 * time.Second
	// MaxRunAge is how old a declared start time may be before the run
	// is rejected as stale.
	MaxRunAge = 2 * time.Hour
)

// Validator validates run proofs. The zero value is not usable; use New.
type Validator struct {
	now func() time.Time
}

// New returns a Validator using the wall clock.
func New() *Validator {
	return &Validator{now: time.Now}
}

// NewWithClock returns a Validator with an injected clock for tests.
func NewWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate runs the full check suite against a rank run result.
// It never mutates the input and completes in one O(n) pass over the
// events. Any rejection is permanent: the same log will fail the same way
// forever, so rejected results are never queued for retry.
func (v *Validator) Validate(result *types.RunResult) *types.ValidationResult {
	proof := result.Proof
	if proof == nil {
		return reject(types.ReasonMissingProof, "result carries no proof")
	}
	if len(proof.Events) == 0 {
		return reject(types.ReasonMissingEvents, "proof has an empty event log")
	}
	if len(proof.Events) > types.MaxProofEvents && !proof.EventOverflow {
		return reject(types.ReasonEventLimitExceeded,
			fmt.Sprintf("%d events without overflow flag", len(proof.Events)))
	}

	expected := result.ExpectedSigns
	if expected <= 0 {
		return reject(types.ReasonInvalidExpectedSigns,
			fmt.Sprintf("expected signs = %d", expected))
	}
	// Unknown jutsu skip sequence checks entirely: the registry only
	// covers rank-eligible jutsu, and the authority re-verifies names.
	sequence, sequenceKnown := jutsu.Sequence(result.Jutsu)
	if sequenceKnown && len(sequence) != expected {
		return reject(types.ReasonJutsuSequenceMismatch,
			fmt.Sprintf("jutsu %q needs %d signs, result declares %d",
				result.Jutsu, len(sequence), expected))
	}

	startedAt, err := time.Parse(time.RFC3339, proof.ClientStartedAt)
	if err != nil {
		return reject(types.ReasonInvalidStartedAt, proof.ClientStartedAt)
	}
	now := v.now()
	if startedAt.After(now.Add(MaxFutureStart)) {
		return reject(types.ReasonStartedInFuture, proof.ClientStartedAt)
	}
	if now.Sub(startedAt) > MaxRunAge {
		return reject(types.ReasonStaleRun, proof.ClientStartedAt)
	}

	if proof.CooldownMs < types.CooldownMinMs || proof.CooldownMs > types.CooldownMaxMs {
		return reject(types.ReasonCooldownOutOfRange,
			fmt.Sprintf("cooldown %dms", proof.CooldownMs))
	}
	if proof.VoteRequiredHits < types.VoteHitsMin || proof.VoteRequiredHits > types.VoteHitsMax {
		return reject(types.ReasonVoteHitsOutOfRange,
			fmt.Sprintf("vote hits %d", proof.VoteRequiredHits))
	}
	if proof.VoteMinConfidence < types.VoteConfidenceMin || proof.VoteMinConfidence > types.VoteConfidenceMax {
		return reject(types.ReasonVoteConfOutOfRange,
			fmt.Sprintf("confidence %.3f", proof.VoteMinConfidence))
	}

	minGap := math.Max(MinSignGapFloor, float64(proof.CooldownMs)/1000*0.5)

	var (
		maxT           float64
		runStartSeen   bool
		runStartSec    float64
		finishCount    int
		runFinishSec   float64
		signCount      int
		lastSignSec    float64
		overflowMarker bool
	)

	for i := range proof.Events {
		ev := &proof.Events[i]

		if ev.T < MinEventTime || math.IsNaN(ev.T) {
			return reject(types.ReasonInvalidEventTime,
				fmt.Sprintf("event %d at t=%.3f", i, ev.T))
		}
		if ev.T < maxT-MonotonicSlack {
			return reject(types.ReasonNonMonotonicTime,
				fmt.Sprintf("event %d at t=%.3f after t=%.3f", i, ev.T, maxT))
		}
		if ev.T > maxT {
			maxT = ev.T
		}

		switch ev.Type {
		case types.EventTypeRunStart:
			if runStartSeen {
				return reject(types.ReasonDuplicateRunStart,
					fmt.Sprintf("second run_start at t=%.3f", ev.T))
			}
			runStartSeen = true
			runStartSec = ev.T
			if ev.Mode != nil && *ev.Mode != string(result.Mode) {
				return reject(types.ReasonModeMismatch,
					fmt.Sprintf("event declares %q, result is %q", *ev.Mode, result.Mode))
			}
			if ev.ExpectedSigns != nil && *ev.ExpectedSigns != expected {
				return reject(types.ReasonExpectedSignsMismatch,
					fmt.Sprintf("event declares %d, result declares %d", *ev.ExpectedSigns, expected))
			}

		case types.EventTypeSignOK:
			if !runStartSeen {
				return reject(types.ReasonSignBeforeStart,
					fmt.Sprintf("sign at t=%.3f before run_start", ev.T))
			}
			if ev.Step != signCount+1 {
				return reject(types.ReasonSignStepMismatch,
					fmt.Sprintf("step %d, expected %d", ev.Step, signCount+1))
			}
			if ev.Sign == "" {
				return reject(types.ReasonSignMissing,
					fmt.Sprintf("sign_ok step %d has no sign", ev.Step))
			}
			if sequenceKnown && ev.Sign != sequence[signCount] {
				return reject(types.ReasonSignSequenceMismatch,
					fmt.Sprintf("step %d is %q, canonical is %q", ev.Step, ev.Sign, sequence[signCount]))
			}
			if signCount > 0 && ev.T-lastSignSec < minGap {
				return reject(types.ReasonSignGapTooShort,
					fmt.Sprintf("gap %.3fs at step %d, minimum %.3fs", ev.T-lastSignSec, ev.Step, minGap))
			}
			lastSignSec = ev.T
			signCount++

		case types.EventTypeRunFinish:
			if !runStartSeen {
				return reject(types.ReasonFinishBeforeStart,
					fmt.Sprintf("run_finish at t=%.3f before run_start", ev.T))
			}
			finishCount++
			if finishCount > 1 {
				return reject(types.ReasonInvalidRunFinish,
					fmt.Sprintf("second run_finish at t=%.3f", ev.T))
			}
			runFinishSec = ev.T

		case types.EventTypeOverflow:
			overflowMarker = true

		default:
			// Exhaustive over the event union; anything else is a log
			// the recognizer could not have produced.
			return reject(types.ReasonInvalidEventType,
				fmt.Sprintf("event %d has type %q", i, ev.Type))
		}
	}

	if !runStartSeen {
		return reject(types.ReasonMissingRunStart, "no run_start event")
	}
	if finishCount == 0 {
		return reject(types.ReasonInvalidRunFinish, "no run_finish event")
	}
	if signCount != expected {
		return reject(types.ReasonInsufficientSignEvents,
			fmt.Sprintf("%d sign events, expected %d", signCount, expected))
	}
	if runFinishSec < lastSignSec-FinishSlack {
		return reject(types.ReasonFinishBeforeLastSign,
			fmt.Sprintf("finish at t=%.3f, last sign at t=%.3f", runFinishSec, lastSignSec))
	}
	// The marker is only demanded of logs that actually hit the event
	// cap; a short log with a stray overflow flag passes, the flag alone
	// proves nothing was truncated.
	if proof.EventOverflow && len(proof.Events) >= types.MaxProofEvents && !overflowMarker {
		return reject(types.ReasonOverflowMarkerMissing,
			"overflow flag set without overflow marker event")
	}

	elapsed := result.ElapsedSeconds
	if elapsed <= 0 || math.IsNaN(elapsed) || math.IsInf(elapsed, 0) {
		return reject(types.ReasonInvalidElapsedTime,
			fmt.Sprintf("elapsed %.3fs", elapsed))
	}
	if math.Abs(runFinishSec-elapsed) > ElapsedTolerance {
		return reject(types.ReasonFinishTimeMismatch,
			fmt.Sprintf("finish at t=%.3f, scored elapsed %.3fs", runFinishSec, elapsed))
	}

	return &types.ValidationResult{
		OK:           true,
		Events:       len(proof.Events),
		SignOKCount:  signCount,
		RunStartSec:  runStartSec,
		RunFinishSec: runFinishSec,
		LastSignSec:  lastSignSec,
	}
}

// reject builds a rejection result with the given reason and detail.
func reject(reason types.Reason, detail string) *types.ValidationResult {
	return &types.ValidationResult{
		OK:     false,
		Reason: reason,
		Detail: detail,
	}
}
