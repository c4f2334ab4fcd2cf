package outbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/metrics"
	"github.com/shirogane-dev/handseal/schemas"
	"github.com/shirogane-dev/handseal/types"
)

// DefaultCapacity is the maximum number of pending records held. When a
// new record would exceed it, the oldest record is evicted first.
const DefaultCapacity = 20

// DefaultBatch is the number of records attempted per replay cycle.
// Records beyond the batch wait for the next cycle so one tick never
// does unbounded work.
const DefaultBatch = 3

// storeKeyPrefix scopes persisted queues per identity.
const storeKeyPrefix = "handseal:outbox:"

// Submitter resubmits one previously failed run. Implemented by the
// submission coordinator.
type Submitter interface {
	Resubmit(ctx context.Context, result *types.RunResult) *types.SubmissionOutcome
}

// Config configures an Outbox.
type Config struct {
	// Identity scopes the persisted queue (required).
	Identity string
	// Store is the persistence backend. Nil uses an in-memory store.
	Store Store
	// Capacity bounds the queue (default DefaultCapacity).
	Capacity int
	// Batch bounds per-replay work (default DefaultBatch).
	Batch int
	// Logger receives queue activity. Nil discards.
	Logger *log.Logger
	// Metrics receives queue counters. Nil is safe.
	Metrics *metrics.Collector
}

// Outbox is a bounded, fingerprint-deduplicated retry queue. The
// in-memory record list is authoritative; the store is a best-effort
// mirror, so persistence faults degrade durability but never block a
// run from being scored.
type Outbox struct {
	store    Store
	key      string
	capacity int
	batch    int
	logger   *log.Logger
	metrics  *metrics.Collector
	now      func() time.Time

	mu      sync.Mutex
	records []*types.PendingSubmission

	replaying atomic.Bool
}

// New creates an Outbox and loads any persisted records for the
// identity. Persisted records that fail schema validation are dropped.
func New(ctx context.Context, cfg Config) (*Outbox, error) {
	if cfg.Identity == "" {
		return nil, errors.New("outbox requires an identity")
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultBatch
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}

	o := &Outbox{
		store:    cfg.Store,
		key:      storeKeyPrefix + cfg.Identity,
		capacity: cfg.Capacity,
		batch:    cfg.Batch,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
	o.load(ctx)
	return o, nil
}

// load reads the persisted queue. Decode or validation failures drop the
// affected records; a failed read starts empty.
func (o *Outbox) load(ctx context.Context) {
	encoded, ok, err := o.store.Get(ctx, o.key)
	if err != nil {
		o.logger.Warn("outbox load failed", map[string]any{"error": err.Error()})
		return
	}
	if !ok || encoded == "" {
		return
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		o.logger.Warn("outbox payload corrupt", map[string]any{"error": err.Error()})
		return
	}

	var stored []*types.PendingSubmission
	if err := msgpack.Unmarshal(raw, &stored); err != nil {
		o.logger.Warn("outbox payload corrupt", map[string]any{"error": err.Error()})
		return
	}

	kept := make([]*types.PendingSubmission, 0, len(stored))
	for _, rec := range stored {
		if rec == nil {
			continue
		}
		if err := schemas.ValidateValue(schemas.PendingSubmissionSchema, rec); err != nil {
			o.metrics.IncRecordDropped()
			o.logger.Warn("outbox record dropped", map[string]any{
				"fingerprint": rec.Fingerprint,
				"error":       err.Error(),
			})
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) > o.capacity {
		kept = kept[len(kept)-o.capacity:]
	}

	o.mu.Lock()
	o.records = kept
	o.mu.Unlock()
}

// Enqueue upserts a record for the result's fingerprint. An existing
// record is refreshed in place; a new record is appended and the oldest
// records are evicted past capacity. Persistence faults are logged and
// swallowed.
func (o *Outbox) Enqueue(ctx context.Context, result *types.RunResult, reason string) {
	fingerprint := result.Fingerprint()
	now := o.now().UTC()

	o.mu.Lock()
	var rec *types.PendingSubmission
	for _, existing := range o.records {
		if existing.Fingerprint == fingerprint {
			rec = existing
			break
		}
	}
	if rec != nil {
		rec.UpdatedAt = now
		rec.LastReason = reason
		rec.Result = *result
	} else {
		o.records = append(o.records, &types.PendingSubmission{
			ID:          uuid.NewString(),
			Fingerprint: fingerprint,
			CreatedAt:   now,
			UpdatedAt:   now,
			Attempts:    0,
			LastReason:  reason,
			Result:      *result,
		})
		for len(o.records) > o.capacity {
			evicted := o.records[0]
			o.records = o.records[1:]
			o.metrics.IncRecordEvicted()
			o.logger.Warn("outbox record evicted", map[string]any{
				"fingerprint": evicted.Fingerprint,
				"attempts":    evicted.Attempts,
			})
		}
	}
	o.mu.Unlock()

	o.persist(ctx)
	o.logger.Info("outbox record queued", map[string]any{
		"fingerprint": fingerprint,
		"reason":      reason,
		"depth":       o.Len(),
	})
}

// Remove deletes the record for a fingerprint, if present.
func (o *Outbox) Remove(ctx context.Context, fingerprint string) {
	o.mu.Lock()
	for i, rec := range o.records {
		if rec.Fingerprint == fingerprint {
			o.records = append(o.records[:i], o.records[i+1:]...)
			break
		}
	}
	o.mu.Unlock()
	o.persist(ctx)
}

// Len returns the number of pending records.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

// Snapshot returns a copy of all pending records, oldest first.
func (o *Outbox) Snapshot() []types.PendingSubmission {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]types.PendingSubmission, len(o.records))
	for i, rec := range o.records {
		out[i] = *rec
	}
	return out
}

// ReplayStats summarizes one replay cycle.
type ReplayStats struct {
	// Attempted is the number of records submitted this cycle.
	Attempted int
	// Recovered is the number of records accepted by the authority.
	Recovered int
	// Discarded is the number of records removed after a permanent
	// rejection.
	Discarded int
	// Kept is the number of attempted records kept for the next cycle.
	Kept int
	// Skipped is true when another replay was already in progress.
	Skipped bool
}

// Replay drains up to one batch of records through the submitter.
// Single-flight: a call while another replay is in progress is a no-op.
// Accepted and duplicate outcomes remove the record; permanent
// rejections remove it too; retryable failures keep it with an
// incremented attempt count. Records beyond the batch wait for the next
// cycle.
func (o *Outbox) Replay(ctx context.Context, submitter Submitter) ReplayStats {
	if !o.replaying.CompareAndSwap(false, true) {
		return ReplayStats{Skipped: true}
	}
	defer o.replaying.Store(false)

	o.metrics.IncReplayRun()

	// Work from value copies: the live records stay behind o.mu and a
	// concurrent Enqueue may refresh them while the batch is in flight.
	o.mu.Lock()
	n := len(o.records)
	if n > o.batch {
		n = o.batch
	}
	batch := make([]types.PendingSubmission, n)
	for i, rec := range o.records[:n] {
		batch[i] = *rec
	}
	o.mu.Unlock()

	var stats ReplayStats
	for i := range batch {
		if err := ctx.Err(); err != nil {
			break
		}
		rec := &batch[i]
		stats.Attempted++

		result := rec.Result
		outcome := submitter.Resubmit(ctx, &result)

		switch {
		case outcome.OK:
			o.removeLocked(rec.Fingerprint)
			o.metrics.IncRecordRecovered()
			stats.Recovered++
			o.logger.Info("outbox record recovered", map[string]any{
				"fingerprint": rec.Fingerprint,
				"attempts":    rec.Attempts + 1,
				"reason":      outcome.Reason,
			})
		case !outcome.Retryable:
			o.removeLocked(rec.Fingerprint)
			o.metrics.IncRecordDropped()
			stats.Discarded++
			o.logger.Warn("outbox record rejected", map[string]any{
				"fingerprint": rec.Fingerprint,
				"reason":      outcome.Reason,
				"detail":      outcome.DetailText,
			})
		default:
			attempts := o.keepLocked(rec.Fingerprint, outcome.Reason)
			stats.Kept++
			o.logger.Debug("outbox record kept", map[string]any{
				"fingerprint": rec.Fingerprint,
				"attempts":    attempts,
				"reason":      outcome.Reason,
			})
		}
	}

	o.persist(ctx)
	return stats
}

func (o *Outbox) removeLocked(fingerprint string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, rec := range o.records {
		if rec.Fingerprint == fingerprint {
			o.records = append(o.records[:i], o.records[i+1:]...)
			return
		}
	}
}

// keepLocked marks a record as retried and returns its new attempt
// count. The record may be gone if it was removed since the batch was
// copied; that is fine, the next cycle simply will not see it.
func (o *Outbox) keepLocked(fingerprint, reason string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		if rec.Fingerprint == fingerprint {
			rec.Attempts++
			rec.UpdatedAt = o.now().UTC()
			rec.LastReason = reason
			return rec.Attempts
		}
	}
	return 0
}

// persist mirrors the in-memory queue to the store. Best effort: a
// storage fault is logged, never surfaced. The queue is encoded while
// the lock is held so a concurrent replay or enqueue cannot mutate
// records mid-marshal; only the store round trip runs unlocked.
func (o *Outbox) persist(ctx context.Context) {
	o.mu.Lock()
	var raw []byte
	var encodeErr error
	if len(o.records) > 0 {
		raw, encodeErr = msgpack.Marshal(o.records)
	}
	o.mu.Unlock()

	if encodeErr != nil {
		o.logger.Warn("outbox persist failed", map[string]any{"error": fmt.Sprintf("encode: %v", encodeErr)})
		return
	}
	if raw == nil {
		if err := o.store.Remove(ctx, o.key); err != nil {
			o.logger.Warn("outbox persist failed", map[string]any{"error": err.Error()})
		}
		return
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := o.store.Set(ctx, o.key, encoded); err != nil {
		o.logger.Warn("outbox persist failed", map[string]any{"error": err.Error()})
	}
}
