package outbox

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirogane-dev/handseal/log"
)

// DefaultReplayInterval is how often the scheduler drains on its own.
const DefaultReplayInterval = 30 * time.Second

// Scheduler drives replay cycles. Cycles run on a periodic timer and on
// explicit nudges (authentication, network recovery). Every trigger hits
// the same single-flight Replay, so overlapping triggers collapse into
// one drain.
type Scheduler struct {
	outbox    *Outbox
	submitter Submitter
	interval  time.Duration
	logger    *log.Logger

	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewScheduler creates a stopped scheduler. Call Start to begin draining.
func NewScheduler(o *Outbox, submitter Submitter, interval time.Duration, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultReplayInterval
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Scheduler{
		outbox:    o,
		submitter: submitter,
		interval:  interval,
		logger:    logger,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the replay loop. The loop exits when ctx is canceled or
// Stop is called. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
		case <-s.kick:
		}

		if s.outbox.Len() == 0 {
			continue
		}
		stats := s.outbox.Replay(ctx, s.submitter)
		if stats.Skipped {
			continue
		}
		s.logger.Info("outbox replay cycle", map[string]any{
			"attempted": stats.Attempted,
			"recovered": stats.Recovered,
			"discarded": stats.Discarded,
			"kept":      stats.Kept,
			"depth":     s.outbox.Len(),
		})
	}
}

// nudge requests an immediate drain. Coalesces with any pending nudge.
func (s *Scheduler) nudge() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// NotifyAuthenticated requests a drain after a successful (re)login.
func (s *Scheduler) NotifyAuthenticated() { s.nudge() }

// NotifyNetworkRecovered requests a drain after connectivity returns.
func (s *Scheduler) NotifyNetworkRecovered() { s.nudge() }

// Stop halts the loop and waits for the in-flight cycle to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}
