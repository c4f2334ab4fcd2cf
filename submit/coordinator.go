// Package submit implements the submission coordinator: the single entry
// point that takes a completed run from validation through hashing, token
// resolution, and authority submission to a typed outcome.
//
// Nothing is thrown past this boundary. Every path returns a
// SubmissionOutcome; callers decide whether a retryable outcome goes to
// the outbox.
package submit

import (
	"context"
	"errors"
	"time"

	"github.com/shirogane-dev/handseal/adapter"
	"github.com/shirogane-dev/handseal/authority"
	"github.com/shirogane-dev/handseal/integrity"
	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/metrics"
	"github.com/shirogane-dev/handseal/types"
	"github.com/shirogane-dev/handseal/validate"
)

// Config configures a Coordinator.
type Config struct {
	// Identity is the authenticated player identity (required).
	Identity string
	// Router calls authority procedures (required).
	Router *authority.Router
	// Broker resolves run tokens. Nil builds one from Router and
	// Identity.
	Broker *authority.TokenBroker
	// Validator checks proofs. Nil uses the wall-clock validator.
	Validator *validate.Validator
	// Hasher computes integrity hashes. Nil uses SHA-256.
	Hasher *integrity.Hasher
	// Adapters receive best-effort run-recorded notifications.
	Adapters []adapter.Adapter
	// Logger receives pipeline activity. Nil discards.
	Logger *log.Logger
	// Metrics receives pipeline counters. Nil is safe.
	Metrics *metrics.Collector
}

// Coordinator drives the secure submission pipeline for one identity.
type Coordinator struct {
	identity  string
	router    *authority.Router
	broker    *authority.TokenBroker
	validator *validate.Validator
	hasher    *integrity.Hasher
	adapters  []adapter.Adapter
	logger    *log.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// New creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Identity == "" {
		return nil, errors.New("coordinator requires an identity")
	}
	if cfg.Router == nil {
		return nil, errors.New("coordinator requires a router")
	}
	if cfg.Broker == nil {
		cfg.Broker = authority.NewTokenBroker(cfg.Router, cfg.Identity, cfg.Metrics)
	}
	if cfg.Validator == nil {
		cfg.Validator = validate.New()
	}
	if cfg.Hasher == nil {
		cfg.Hasher = integrity.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	return &Coordinator{
		identity:  cfg.Identity,
		router:    cfg.Router,
		broker:    cfg.Broker,
		validator: cfg.Validator,
		hasher:    cfg.Hasher,
		adapters:  cfg.Adapters,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		now:       time.Now,
	}, nil
}

// Submit takes one completed run through the pipeline. Free runs pass
// through untouched; only rank runs are gated by secure submission.
func (c *Coordinator) Submit(ctx context.Context, result *types.RunResult) *types.SubmissionOutcome {
	return c.submit(ctx, result, false)
}

// Resubmit replays a previously queued run. Identical to Submit except
// the downstream notification is flagged as replayed.
func (c *Coordinator) Resubmit(ctx context.Context, result *types.RunResult) *types.SubmissionOutcome {
	return c.submit(ctx, result, true)
}

func (c *Coordinator) submit(ctx context.Context, result *types.RunResult, replayed bool) *types.SubmissionOutcome {
	if result.Mode != types.ModeRank {
		return &types.SubmissionOutcome{
			OK:         true,
			StatusText: "free run, recorded locally",
		}
	}

	c.metrics.IncSubmissionStarted()

	if err := result.Validate(); err != nil {
		c.metrics.IncSubmissionRejected()
		return &types.SubmissionOutcome{
			OK:         false,
			Reason:     types.ReasonRejected,
			StatusText: "submission rejected",
			DetailText: err.Error(),
		}
	}

	// 1. Structural and temporal proof validation. Rejections are
	// poisoned logs: re-attempting can never succeed, so they are never
	// queued.
	vr := c.validator.Validate(result)
	if !vr.OK {
		c.metrics.IncProofRejected()
		c.metrics.IncSubmissionRejected()
		c.logger.Warn("proof rejected", map[string]any{
			"jutsu":  result.Jutsu,
			"reason": string(vr.Reason),
			"detail": vr.Detail,
		})
		return &types.SubmissionOutcome{
			OK:         false,
			Reason:     string(vr.Reason),
			StatusText: "proof rejected",
			DetailText: vr.Detail,
		}
	}
	c.metrics.IncProofValidated()

	proof := result.Proof

	// 2. Integrity hashes over the canonical event log.
	runHash := c.hasher.RunHash(proof.Events)
	chain := c.hasher.Chain(c.identity, result.Mode, proof.ClientStartedAt, proof.Events)

	// 3. Token resolution.
	token, tokenSource, err := c.broker.Resolve(ctx, proof, result.Mode)
	if err != nil {
		if authority.Classify(err) == authority.ClassTransient {
			return &types.SubmissionOutcome{
				OK:         false,
				Retryable:  true,
				Reason:     types.ReasonNetwork,
				StatusText: "submission queued",
				DetailText: err.Error(),
			}
		}
		c.metrics.IncSubmissionRejected()
		return &types.SubmissionOutcome{
			OK:         false,
			Reason:     types.ReasonTokenIssueFailed,
			StatusText: "could not obtain run token",
			DetailText: err.Error(),
		}
	}

	// 4. The submission call carries everything the authority needs to
	// re-validate: the full event log, both hashes, and the detection
	// thresholds actually used.
	payload := map[string]any{
		"identity":            c.identity,
		"mode":                string(result.Mode),
		"jutsu":               result.Jutsu,
		"score_time":          result.ElapsedSeconds,
		"token":               token,
		"token_source":        tokenSource,
		"token_issue_reason":  proof.TokenIssueReason,
		"client_started_at":   proof.ClientStartedAt,
		"events":              proof.Events,
		"event_overflow":      proof.EventOverflow,
		"run_hash":            runHash,
		"hash_chain":          chain,
		"hash_alg":            string(c.hasher.Algorithm()),
		"expected_signs":      result.ExpectedSigns,
		"signs_landed":        result.SignsLanded,
		"elapsed_seconds":     result.ElapsedSeconds,
		"cooldown_ms":         proof.CooldownMs,
		"vote_required_hits":  proof.VoteRequiredHits,
		"vote_min_confidence": proof.VoteMinConfidence,
		"restricted_signs":    proof.RestrictedSigns,
		"camera_idx":          proof.CameraIdx,
		"resolution_idx":      proof.ResolutionIdx,
		"client_version":      types.Version,
		"contract_version":    types.ProofContractVersion,
	}

	resp, path, err := c.router.Call(ctx, authority.ProcSubmitRun, payload)
	if err != nil {
		return c.classifyFailure(result, err)
	}

	c.metrics.IncSubmissionAccepted()
	c.logger.Info("run recorded", map[string]any{
		"jutsu":      result.Jutsu,
		"score_time": result.ElapsedSeconds,
		"run_hash":   runHash,
		"path":       string(path),
		"replayed":   replayed,
	})

	outcome := &types.SubmissionOutcome{
		OK:         true,
		Reason:     types.ReasonAccepted,
		StatusText: "run recorded",
	}
	if status, ok := resp["status"].(string); ok && status != "" {
		outcome.StatusText = status
	}

	// 5. Best-effort rank read; never affects the outcome.
	outcome.RankText = c.readRank(ctx, result)

	c.notify(ctx, result, runHash, replayed)
	return outcome
}

// classifyFailure maps a failed submission call to a typed outcome.
// Duplicates are success: the run was recorded by a prior attempt.
func (c *Coordinator) classifyFailure(result *types.RunResult, err error) *types.SubmissionOutcome {
	switch authority.Classify(err) {
	case authority.ClassDuplicate:
		c.metrics.IncDuplicateCoalesced()
		c.logger.Info("run already recorded", map[string]any{
			"jutsu":  result.Jutsu,
			"detail": err.Error(),
		})
		return &types.SubmissionOutcome{
			OK:         true,
			Reason:     types.ReasonDuplicate,
			StatusText: "run already recorded",
			DetailText: err.Error(),
		}
	case authority.ClassTransient:
		return &types.SubmissionOutcome{
			OK:         false,
			Retryable:  true,
			Reason:     types.ReasonNetwork,
			StatusText: "submission queued",
			DetailText: err.Error(),
		}
	default:
		c.metrics.IncSubmissionRejected()
		c.logger.Warn("submission rejected", map[string]any{
			"jutsu":  result.Jutsu,
			"detail": err.Error(),
		})
		return &types.SubmissionOutcome{
			OK:         false,
			Reason:     types.ReasonRejected,
			StatusText: "submission rejected",
			DetailText: err.Error(),
		}
	}
}

// readRank fetches a human-readable rank string for the recorded score.
// Failures are logged and swallowed.
func (c *Coordinator) readRank(ctx context.Context, result *types.RunResult) string {
	resp, _, err := c.router.Call(ctx, authority.ProcReadRank, map[string]any{
		"mode":       string(result.Mode),
		"jutsu":      result.Jutsu,
		"score_time": result.ElapsedSeconds,
	})
	if err != nil {
		c.logger.Debug("rank read failed", map[string]any{"error": err.Error()})
		return ""
	}
	rank, _ := resp["rank_text"].(string)
	return rank
}

// notify publishes the run-recorded event to all adapters. Best effort.
func (c *Coordinator) notify(ctx context.Context, result *types.RunResult, runHash string, replayed bool) {
	if len(c.adapters) == 0 {
		return
	}
	event := &adapter.RunRecordedEvent{
		ContractVersion: types.ProofContractVersion,
		EventType:       adapter.EventTypeRunRecorded,
		Identity:        c.identity,
		Jutsu:           result.Jutsu,
		Mode:            string(result.Mode),
		ScoreTime:       result.ElapsedSeconds,
		RunHash:         runHash,
		HashAlgorithm:   string(c.hasher.Algorithm()),
		Timestamp:       c.now().UTC().Format(time.RFC3339),
		Replayed:        replayed,
	}
	for _, a := range c.adapters {
		if err := a.Publish(ctx, event); err != nil {
			c.metrics.IncAdapterPublishFailure()
			c.logger.Warn("downstream publish failed", map[string]any{"error": err.Error()})
		}
	}
}
