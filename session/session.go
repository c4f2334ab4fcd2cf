// Package session ties the submission pipeline together for one
// authenticated identity. A Session is constructed on authentication and
// closed on sign-out; all per-session state lives on the object, never in
// package-level variables, so a re-login can never see stale identity.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shirogane-dev/handseal/adapter"
	"github.com/shirogane-dev/handseal/authority"
	"github.com/shirogane-dev/handseal/integrity"
	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/metrics"
	"github.com/shirogane-dev/handseal/outbox"
	"github.com/shirogane-dev/handseal/submit"
	"github.com/shirogane-dev/handseal/types"
)

// Config configures a Session.
type Config struct {
	// Identity is the authenticated player identity (required).
	Identity string
	// Invoker reaches the authority (required).
	Invoker authority.Invoker
	// Store persists the outbox. Nil keeps the queue in memory only.
	Store outbox.Store
	// Adapters receive run-recorded notifications. The session owns
	// their lifecycle and closes them on Close.
	Adapters []adapter.Adapter
	// ReplayInterval is the periodic outbox drain interval.
	ReplayInterval time.Duration
	// OutboxCapacity bounds the retry queue.
	OutboxCapacity int
	// ReplayBatch bounds per-drain work.
	ReplayBatch int
	// Hasher overrides the integrity hasher. Nil uses SHA-256.
	Hasher *integrity.Hasher
	// Logger overrides the default session logger. Nil builds one
	// tagged with the identity and session ID.
	Logger *log.Logger
}

// Session is the per-login context object owning the coordinator, the
// outbox, and the replay scheduler.
type Session struct {
	id       string
	identity string

	logger      *log.Logger
	collector   *metrics.Collector
	coordinator *submit.Coordinator
	queue       *outbox.Outbox
	scheduler   *outbox.Scheduler
	adapters    []adapter.Adapter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New builds a Session, loads its persisted outbox, and starts the replay
// scheduler. Construction counts as an authentication event, so one drain
// is nudged immediately.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Identity == "" {
		return nil, errors.New("session requires an identity")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("session requires an invoker")
	}

	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger(cfg.Identity, id)
	}
	collector := metrics.NewCollector(cfg.Identity, id)

	router, err := authority.NewRouter(cfg.Invoker, logger, collector)
	if err != nil {
		return nil, err
	}

	coordinator, err := submit.New(submit.Config{
		Identity: cfg.Identity,
		Router:   router,
		Hasher:   cfg.Hasher,
		Adapters: cfg.Adapters,
		Logger:   logger,
		Metrics:  collector,
	})
	if err != nil {
		return nil, err
	}

	queue, err := outbox.New(ctx, outbox.Config{
		Identity: cfg.Identity,
		Store:    cfg.Store,
		Capacity: cfg.OutboxCapacity,
		Batch:    cfg.ReplayBatch,
		Logger:   logger,
		Metrics:  collector,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:          id,
		identity:    cfg.Identity,
		logger:      logger,
		collector:   collector,
		coordinator: coordinator,
		queue:       queue,
		adapters:    cfg.Adapters,
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s.ctx = sessionCtx
	s.cancel = cancel
	s.scheduler = outbox.NewScheduler(queue, coordinator, cfg.ReplayInterval, logger)
	s.scheduler.Start(sessionCtx)
	s.scheduler.NotifyAuthenticated()

	logger.Info("session opened", map[string]any{"pending": queue.Len()})
	return s, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Identity returns the authenticated identity.
func (s *Session) Identity() string { return s.identity }

// Outbox exposes the pending queue for inspection surfaces.
func (s *Session) Outbox() *outbox.Outbox { return s.queue }

// Metrics returns a point-in-time counter snapshot.
func (s *Session) Metrics() metrics.Snapshot { return s.collector.Snapshot() }

// SubmitRun is the front door for a completed run. The run's local result
// always stands; a retryable submission failure is queued for replay and
// reported as queued rather than failed.
func (s *Session) SubmitRun(ctx context.Context, result *types.RunResult) *types.SubmissionOutcome {
	outcome := s.coordinator.Submit(ctx, result)
	if !outcome.OK && outcome.Retryable {
		s.queue.Enqueue(ctx, result, outcome.Reason)
		s.collector.IncSubmissionQueued()
		outcome.StatusText = "submission queued"
	}
	return outcome
}

// Replay forces one outbox drain cycle, bypassing the scheduler. Used by
// inspection surfaces; the scheduler's single-flight guard still applies.
func (s *Session) Replay(ctx context.Context) outbox.ReplayStats {
	return s.queue.Replay(ctx, s.coordinator)
}

// NotifyNetworkRecovered nudges the scheduler after connectivity returns.
func (s *Session) NotifyNetworkRecovered() {
	s.scheduler.NotifyNetworkRecovered()
}

// Go runs fn on the session's task registry. The context passed to fn is
// canceled on Close; Close waits for fn to return.
func (s *Session) Go(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Close stops the replay scheduler, waits for registered tasks, and
// releases adapter resources. Safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.scheduler.Stop()
	s.cancel()
	s.wg.Wait()

	var firstErr error
	for _, a := range s.adapters {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Info("session closed", map[string]any{"pending": s.queue.Len()})
	return firstErr
}
