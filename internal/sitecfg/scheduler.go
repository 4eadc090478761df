package sitecfg

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period before edits are written back.
const DefaultDebounce = 300 * time.Millisecond

// FlushFunc writes the latest document to its destination.
type FlushFunc func(ctx context.Context) error

// Scheduler coalesces bursts of edits into one write. Every Schedule call
// restarts the timer; at most one flush is in flight, and an edit that lands
// during a flush schedules another one after it.
type Scheduler struct {
	delay  time.Duration
	flush  FlushFunc
	ctx    context.Context
	logger zerolog.Logger

	mu       sync.Mutex
	idle     *sync.Cond
	timer    *time.Timer
	seq      uint64
	dirty    bool
	inFlight bool
	stopped  bool
}

// NewScheduler creates a debounced scheduler.
// Args:
//   ctx: Context passed to timer driven flushes.
//   delay: Quiet period. DefaultDebounce when <= 0.
//   flush: Write function.
//   logger: Logger instance.
// Returns:
//   *Scheduler: Initialized scheduler.
func NewScheduler(ctx context.Context, delay time.Duration, flush FlushFunc, logger zerolog.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	s := &Scheduler{
		delay:  delay,
		flush:  flush,
		ctx:    ctx,
		logger: logger.With().Str("component", "persist_scheduler").Logger(),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Schedule marks the document dirty and (re)starts the quiet period.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.dirty = true
	s.restartLocked()
}

// Flush writes pending edits now, after any in-flight flush completes.
// Returns:
//   error: Flush error, nil when nothing was pending.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	for s.inFlight {
		s.idle.Wait()
	}
	s.cancelLocked()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	s.inFlight = true
	s.mu.Unlock()

	return s.run(ctx)
}

// Pending reports whether a write is waiting or running.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty || s.inFlight
}

// Stop cancels the timer. Pending edits are dropped; call Flush first to keep them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.cancelLocked()
}

func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.seq || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.inFlight || !s.dirty {
		// the in-flight flush re-arms the timer when it completes
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.inFlight = true
	s.mu.Unlock()

	_ = s.run(s.ctx)
}

func (s *Scheduler) run(ctx context.Context) error {
	err := s.flush(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("flush failed, waiting for next edit")
	}

	s.mu.Lock()
	s.inFlight = false
	if s.dirty && s.timer == nil && !s.stopped {
		s.restartLocked()
	}
	s.idle.Broadcast()
	s.mu.Unlock()
	return err
}

func (s *Scheduler) restartLocked() {
	s.cancelLocked()
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(seq)
	})
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}
