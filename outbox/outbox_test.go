package outbox

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shirogane-dev/handseal/types"
)

func testResult(token string) *types.RunResult {
	return &types.RunResult{
		Mode:           types.ModeRank,
		Jutsu:          "summoning",
		SignsLanded:    5,
		ExpectedSigns:  5,
		ElapsedSeconds: 1.5,
		Proof: &types.Proof{
			RunToken:          token,
			ClientStartedAt:   "2026-08-30T10:03:00Z",
			CooldownMs:        500,
			VoteRequiredHits:  2,
			VoteMinConfidence: 0.6,
			Events: []types.ProofEvent{
				{T: 0, Type: types.EventTypeRunStart},
				{T: 0.3, Type: types.EventTypeSignOK, Step: 1, Sign: "boar"},
				{T: 1.5, Type: types.EventTypeRunFinish},
			},
		},
	}
}

func newTestOutbox(t *testing.T, cfg Config) *Outbox {
	t.Helper()
	if cfg.Identity == "" {
		cfg.Identity = "ninja-17"
	}
	o, err := New(t.Context(), cfg)
	if err != nil {
		t.Fatalf("new outbox: %v", err)
	}
	return o
}

// scriptedSubmitter returns canned outcomes keyed by run token.
type scriptedSubmitter struct {
	mu       sync.Mutex
	outcomes map[string]*types.SubmissionOutcome
	calls    []string
	block    chan struct{} // if set, Resubmit waits until closed
	entered  chan struct{} // if set, signaled when Resubmit starts
}

func (s *scriptedSubmitter) Resubmit(_ context.Context, result *types.RunResult) *types.SubmissionOutcome {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	token := result.Proof.RunToken
	s.mu.Lock()
	s.calls = append(s.calls, token)
	outcome := s.outcomes[token]
	s.mu.Unlock()
	if outcome == nil {
		outcome = &types.SubmissionOutcome{OK: true, Reason: types.ReasonAccepted}
	}
	return outcome
}

func TestEnqueueUpsertsByFingerprint(t *testing.T) {
	o := newTestOutbox(t, Config{})

	result := testResult("tok-1")
	o.Enqueue(t.Context(), result, types.ReasonNetwork)
	o.Enqueue(t.Context(), result, "timeout")

	if o.Len() != 1 {
		t.Fatalf("expected 1 record after re-enqueue, got %d", o.Len())
	}
	rec := o.Snapshot()[0]
	if rec.LastReason != "timeout" {
		t.Errorf("expected last reason timeout, got %s", rec.LastReason)
	}
	if rec.Fingerprint != "token:tok-1" {
		t.Errorf("unexpected fingerprint %s", rec.Fingerprint)
	}
}

func TestEnqueueEvictsOldestAtCapacity(t *testing.T) {
	o := newTestOutbox(t, Config{Capacity: 3})

	for _, token := range []string{"tok-1", "tok-2", "tok-3", "tok-4"} {
		o.Enqueue(t.Context(), testResult(token), types.ReasonNetwork)
	}

	if o.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", o.Len())
	}
	records := o.Snapshot()
	if records[0].Fingerprint != "token:tok-2" {
		t.Errorf("expected oldest record evicted, head is %s", records[0].Fingerprint)
	}
	if records[2].Fingerprint != "token:tok-4" {
		t.Errorf("expected newest record kept, tail is %s", records[2].Fingerprint)
	}
}

func TestQueueSurvivesReload(t *testing.T) {
	store := NewMemoryStore()

	o := newTestOutbox(t, Config{Store: store})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)
	o.Enqueue(t.Context(), testResult("tok-2"), types.ReasonNetwork)

	reloaded := newTestOutbox(t, Config{Store: store})
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 records after reload, got %d", reloaded.Len())
	}
	if reloaded.Snapshot()[0].Fingerprint != "token:tok-1" {
		t.Errorf("expected order preserved, head is %s", reloaded.Snapshot()[0].Fingerprint)
	}
}

func TestLoadDropsCorruptPayload(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Set(t.Context(), storeKeyPrefix+"ninja-17", "not base64!!"); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	o := newTestOutbox(t, Config{Store: store})
	if o.Len() != 0 {
		t.Fatalf("expected empty queue from corrupt payload, got %d", o.Len())
	}
}

func TestLoadDropsSchemaInvalidRecords(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 5, 0, 0, time.UTC)
	good := &types.PendingSubmission{
		ID:          "rec-1",
		Fingerprint: "token:tok-1",
		CreatedAt:   now,
		UpdatedAt:   now,
		Result:      *testResult("tok-1"),
	}
	bad := &types.PendingSubmission{
		ID:          "rec-2",
		Fingerprint: "", // fails the schema minimum
		CreatedAt:   now,
		UpdatedAt:   now,
		Result:      *testResult("tok-2"),
	}

	raw, err := msgpack.Marshal([]*types.PendingSubmission{good, bad})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	store := NewMemoryStore()
	if err := store.Set(t.Context(), storeKeyPrefix+"ninja-17", base64.StdEncoding.EncodeToString(raw)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	o := newTestOutbox(t, Config{Store: store})
	if o.Len() != 1 {
		t.Fatalf("expected 1 surviving record, got %d", o.Len())
	}
	if o.Snapshot()[0].Fingerprint != "token:tok-1" {
		t.Errorf("wrong record survived: %s", o.Snapshot()[0].Fingerprint)
	}
}

func TestReplayRecoversAndRemoves(t *testing.T) {
	store := NewMemoryStore()
	o := newTestOutbox(t, Config{Store: store})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	sub := &scriptedSubmitter{outcomes: map[string]*types.SubmissionOutcome{
		"tok-1": {OK: true, Reason: types.ReasonAccepted},
	}}
	stats := o.Replay(t.Context(), sub)

	if stats.Recovered != 1 || stats.Attempted != 1 {
		t.Fatalf("expected one recovered record, got %+v", stats)
	}
	if o.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", o.Len())
	}
	if _, ok, _ := store.Get(t.Context(), storeKeyPrefix+"ninja-17"); ok {
		t.Error("expected persisted queue cleared after recovery")
	}
}

func TestReplayDuplicateTreatedAsSuccess(t *testing.T) {
	o := newTestOutbox(t, Config{})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	sub := &scriptedSubmitter{outcomes: map[string]*types.SubmissionOutcome{
		"tok-1": {OK: true, Reason: types.ReasonDuplicate},
	}}
	stats := o.Replay(t.Context(), sub)

	if stats.Recovered != 1 {
		t.Fatalf("expected duplicate counted as recovery, got %+v", stats)
	}
	if o.Len() != 0 {
		t.Fatalf("expected record removed, got %d", o.Len())
	}
}

func TestReplayKeepsRetryableWithAttempts(t *testing.T) {
	o := newTestOutbox(t, Config{})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	sub := &scriptedSubmitter{outcomes: map[string]*types.SubmissionOutcome{
		"tok-1": {OK: false, Retryable: true, Reason: types.ReasonNetwork},
	}}

	o.Replay(t.Context(), sub)
	o.Replay(t.Context(), sub)

	if o.Len() != 1 {
		t.Fatalf("expected record kept, got %d", o.Len())
	}
	if got := o.Snapshot()[0].Attempts; got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestConcurrentEnqueueAndReplay(t *testing.T) {
	o := newTestOutbox(t, Config{})

	sub := &scriptedSubmitter{outcomes: map[string]*types.SubmissionOutcome{
		"tok-1": {OK: false, Retryable: true, Reason: types.ReasonNetwork},
	}}
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	// An enqueuing caller and a replaying scheduler work the same queue
	// at once; both persist, and the replay mutates kept records.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 50 {
			o.Enqueue(t.Context(), testResult("tok-1"), "timeout")
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			o.Replay(t.Context(), sub)
		}
	}()
	wg.Wait()

	if o.Len() != 1 {
		t.Fatalf("expected the retryable record kept, got %d", o.Len())
	}
	rec := o.Snapshot()[0]
	if rec.Fingerprint != "token:tok-1" {
		t.Errorf("unexpected fingerprint %s", rec.Fingerprint)
	}
}

func TestReplayDiscardsPermanentRejection(t *testing.T) {
	o := newTestOutbox(t, Config{})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	sub := &scriptedSubmitter{outcomes: map[string]*types.SubmissionOutcome{
		"tok-1": {OK: false, Retryable: false, Reason: types.ReasonRejected},
	}}
	stats := o.Replay(t.Context(), sub)

	if stats.Discarded != 1 {
		t.Fatalf("expected one discarded record, got %+v", stats)
	}
	if o.Len() != 0 {
		t.Fatalf("expected record removed, got %d", o.Len())
	}
}

func TestReplayBoundsWorkPerCycle(t *testing.T) {
	o := newTestOutbox(t, Config{Batch: 3})
	tokens := []string{"tok-1", "tok-2", "tok-3", "tok-4", "tok-5"}
	for _, token := range tokens {
		o.Enqueue(t.Context(), testResult(token), types.ReasonNetwork)
	}

	sub := &scriptedSubmitter{}
	stats := o.Replay(t.Context(), sub)

	if stats.Attempted != 3 {
		t.Fatalf("expected 3 attempts in one cycle, got %d", stats.Attempted)
	}
	if o.Len() != 2 {
		t.Fatalf("expected 2 records left for next cycle, got %d", o.Len())
	}

	stats = o.Replay(t.Context(), sub)
	if stats.Attempted != 2 {
		t.Fatalf("expected backlog drained next cycle, got %d", stats.Attempted)
	}
	if o.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", o.Len())
	}
}

func TestReplaySingleFlight(t *testing.T) {
	o := newTestOutbox(t, Config{})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	sub := &scriptedSubmitter{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}

	done := make(chan ReplayStats, 1)
	go func() { done <- o.Replay(t.Context(), sub) }()

	// Wait until the first replay is inside the submitter
	<-sub.entered

	if stats := o.Replay(t.Context(), sub); !stats.Skipped {
		t.Error("expected re-entrant replay to be skipped")
	}

	close(sub.block)
	if stats := <-done; stats.Attempted != 1 {
		t.Errorf("expected first replay to proceed, got %+v", stats)
	}
}

func TestEnqueueSwallowsPersistenceFaults(t *testing.T) {
	o := newTestOutbox(t, Config{Store: &failingStore{}})
	o.Enqueue(t.Context(), testResult("tok-1"), types.ReasonNetwork)

	if o.Len() != 1 {
		t.Fatalf("expected in-memory record despite store fault, got %d", o.Len())
	}
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, context.DeadlineExceeded
}
func (failingStore) Set(context.Context, string, string) error { return context.DeadlineExceeded }
func (failingStore) Remove(context.Context, string) error      { return context.DeadlineExceeded }
