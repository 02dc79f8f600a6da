package physics

import (
	"context"
	"time"
)

// FixedStepScheduler turns variable frame times into a whole number of
// fixed-size updates, carrying the remainder (lag) into the next frame.
type FixedStepScheduler struct {
	step       time.Duration
	maxCatchUp int
	update     func(step time.Duration)
	logger     Logger

	lag     time.Duration
	paused  bool
	steps   uint64
	dropped uint64
}

// NewFixedStepScheduler builds a scheduler calling update once per step.
// maxCatchUp bounds the updates run for a single frame; when it is hit the
// surplus whole steps are dropped. maxCatchUp <= 0 means no bound.
func NewFixedStepScheduler(step time.Duration, maxCatchUp int, update func(time.Duration), logger Logger) *FixedStepScheduler {
	if step <= 0 {
		panic("fixed step must be positive")
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &FixedStepScheduler{
		step:       step,
		maxCatchUp: maxCatchUp,
		update:     update,
		logger:     logger,
	}
}

// Advance adds elapsed to the lag and drains it. It returns the number of
// updates run.
func (s *FixedStepScheduler) Advance(elapsed time.Duration) int {
	if s.paused {
		return 0
	}
	if elapsed > 0 {
		s.lag += elapsed
	}

	n := 0
	for s.lag >= s.step && !s.paused {
		if s.maxCatchUp > 0 && n >= s.maxCatchUp {
			surplus := s.lag / s.step
			s.lag %= s.step
			s.dropped += uint64(surplus)
			s.logger.Warnf("physics is %d steps behind, dropping them", surplus)
			break
		}
		s.update(s.step)
		s.lag -= s.step
		s.steps++
		n++
	}
	return n
}

func (s *FixedStepScheduler) Step() time.Duration { return s.step }
func (s *FixedStepScheduler) Lag() time.Duration  { return s.lag }

// Steps is the total number of updates run so far.
func (s *FixedStepScheduler) Steps() uint64 { return s.steps }

// Dropped is the total number of steps discarded by the catch-up bound.
func (s *FixedStepScheduler) Dropped() uint64 { return s.dropped }

// Pause stops further updates. Called from inside an update it takes effect
// after that update returns.
func (s *FixedStepScheduler) Pause()       { s.paused = true }
func (s *FixedStepScheduler) Resume()      { s.paused = false }
func (s *FixedStepScheduler) Paused() bool { return s.paused }

// Run drives Advance from a ticker until ctx is done, measuring the real time
// between ticks. Every update runs on the calling goroutine.
func (s *FixedStepScheduler) Run(ctx context.Context, frameInterval time.Duration) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			s.Advance(now.Sub(last))
			last = now
		}
	}
}
