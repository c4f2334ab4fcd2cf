package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shirogane-dev/handseal/adapter"
	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/outbox"
	"github.com/shirogane-dev/handseal/types"
)

// switchableInvoker fails procedures listed in failing until they are
// cleared, then answers with canned responses. Safe for concurrent use.
type switchableInvoker struct {
	mu        sync.Mutex
	responses map[string]map[string]any
	failing   map[string]error
	calls     []string
}

func (s *switchableInvoker) Invoke(_ context.Context, proc string, _ map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, proc)
	if err, ok := s.failing[proc]; ok {
		return nil, err
	}
	if resp, ok := s.responses[proc]; ok {
		return resp, nil
	}
	return map[string]any{}, nil
}

func (s *switchableInvoker) recover(proc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failing, proc)
}

type transientError struct{}

func (transientError) Error() string { return "request failed: connection refused" }

func rankRun(token string) *types.RunResult {
	return &types.RunResult{
		Mode:           types.ModeRank,
		Jutsu:          "summoning",
		SignsLanded:    5,
		ExpectedSigns:  5,
		ElapsedSeconds: 1.5,
		Proof: &types.Proof{
			RunToken:          token,
			ClientStartedAt:   time.Now().UTC().Add(-2 * time.Minute).Format(time.RFC3339),
			CooldownMs:        500,
			VoteRequiredHits:  2,
			VoteMinConfidence: 0.6,
			Events: []types.ProofEvent{
				{T: 0, Type: types.EventTypeRunStart},
				{T: 0.3, Type: types.EventTypeSignOK, Step: 1, Sign: "boar"},
				{T: 0.6, Type: types.EventTypeSignOK, Step: 2, Sign: "dog"},
				{T: 0.9, Type: types.EventTypeSignOK, Step: 3, Sign: "bird"},
				{T: 1.2, Type: types.EventTypeSignOK, Step: 4, Sign: "monkey"},
				{T: 1.5, Type: types.EventTypeSignOK, Step: 5, Sign: "ram"},
				{T: 1.5, Type: types.EventTypeRunFinish},
			},
		},
	}
}

func newTestSession(t *testing.T, invoker *switchableInvoker, store outbox.Store, adapters ...adapter.Adapter) *Session {
	t.Helper()
	s, err := New(t.Context(), Config{
		Identity: "ninja-17",
		Invoker:  invoker,
		Store:    store,
		Adapters: adapters,
		// Keep the timer out of the test horizon so drains are manual
		ReplayInterval: time.Hour,
		Logger:         log.Nop(),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubmitRunSuccess(t *testing.T) {
	invoker := &switchableInvoker{
		responses: map[string]map[string]any{
			"secure_submit_run": {"status": "accepted"},
			"get_rank_text":     {"rank_text": "Jonin"},
		},
	}
	s := newTestSession(t, invoker, nil)

	outcome := s.SubmitRun(t.Context(), rankRun("tok-1"))

	if !outcome.OK || outcome.Reason != types.ReasonAccepted {
		t.Fatalf("expected accepted, got %+v", outcome)
	}
	if outcome.RankText != "Jonin" {
		t.Errorf("rank = %q", outcome.RankText)
	}
	if s.Outbox().Len() != 0 {
		t.Errorf("nothing should be queued, got %d", s.Outbox().Len())
	}
}

func TestSubmitRunQueuesTransientFailure(t *testing.T) {
	invoker := &switchableInvoker{
		failing: map[string]error{"secure_submit_run": transientError{}},
	}
	s := newTestSession(t, invoker, nil)

	outcome := s.SubmitRun(t.Context(), rankRun("tok-1"))

	if outcome.OK || !outcome.Retryable {
		t.Fatalf("expected retryable failure, got %+v", outcome)
	}
	if outcome.StatusText != "submission queued" {
		t.Errorf("status = %q", outcome.StatusText)
	}
	if s.Outbox().Len() != 1 {
		t.Fatalf("expected 1 queued record, got %d", s.Outbox().Len())
	}
	if snap := s.Metrics(); snap.SubmissionsQueued != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestReplayRecoversQueuedRun(t *testing.T) {
	store := outbox.NewMemoryStore()
	invoker := &switchableInvoker{
		responses: map[string]map[string]any{
			"secure_submit_run": {"status": "accepted"},
		},
		failing: map[string]error{"secure_submit_run": transientError{}},
	}
	s := newTestSession(t, invoker, store)

	s.SubmitRun(t.Context(), rankRun("tok-1"))
	if s.Outbox().Len() != 1 {
		t.Fatalf("expected 1 queued record, got %d", s.Outbox().Len())
	}

	invoker.recover("secure_submit_run")
	stats := s.Replay(t.Context())

	if stats.Recovered != 1 {
		t.Fatalf("expected one recovered run, got %+v", stats)
	}
	if s.Outbox().Len() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Outbox().Len())
	}
	if snap := s.Metrics(); snap.RecordsRecovered != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestQueueSurvivesSessionRestart(t *testing.T) {
	store := outbox.NewMemoryStore()
	invoker := &switchableInvoker{
		failing: map[string]error{"secure_submit_run": transientError{}},
	}

	first := newTestSession(t, invoker, store)
	first.SubmitRun(t.Context(), rankRun("tok-1"))
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := newTestSession(t, invoker, store)
	if second.Outbox().Len() != 1 {
		t.Fatalf("expected queued record after restart, got %d", second.Outbox().Len())
	}
}

func TestSessionsHaveDistinctIDs(t *testing.T) {
	invoker := &switchableInvoker{}
	a := newTestSession(t, invoker, nil)
	b := newTestSession(t, invoker, nil)

	if a.ID() == b.ID() {
		t.Errorf("session IDs must be unique, both %s", a.ID())
	}
	if a.Identity() != "ninja-17" {
		t.Errorf("identity = %s", a.Identity())
	}
}

func TestCloseWaitsForTasks(t *testing.T) {
	invoker := &switchableInvoker{}
	s := newTestSession(t, invoker, nil)

	finished := make(chan struct{})
	s.Go(func(ctx context.Context) {
		<-ctx.Done()
		close(finished)
	})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case <-finished:
	default:
		t.Fatal("Close returned before the registered task finished")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCloseClosesAdapters(t *testing.T) {
	invoker := &switchableInvoker{}
	closer := &closeTrackingAdapter{}
	s := newTestSession(t, invoker, nil, closer)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closer.closed {
		t.Error("expected adapter closed with session")
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(t.Context(), Config{Invoker: &switchableInvoker{}}); err == nil {
		t.Fatal("expected error for missing identity")
	}
	if _, err := New(t.Context(), Config{Identity: "ninja-17"}); err == nil {
		t.Fatal("expected error for missing invoker")
	}
}

type closeTrackingAdapter struct {
	closed bool
}

func (a *closeTrackingAdapter) Publish(context.Context, *adapter.RunRecordedEvent) error {
	return nil
}

func (a *closeTrackingAdapter) Close() error {
	a.closed = true
	return nil
}
