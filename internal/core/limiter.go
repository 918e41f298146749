package core

// limiter.go guards generation runs with a semaphore. Extraction over a
// large matrix is the one allocation-heavy step in the pipeline, and every
// run executes to completion, so the server caps how many may be in flight
// and rejects re-entrant triggers instead of queueing them forever.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRunInFlight is returned when all generation slots are occupied and
// the wait timeout expires.
var ErrRunInFlight = errors.New("too many concurrent generation runs")

// Limiter defaults, used when the configuration passes zero values.
const (
	DefaultMaxConcurrentRuns = 4
	DefaultRunWait           = 10 * time.Second
)

// RunLimiter restricts how many generation runs execute simultaneously.
type RunLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewRunLimiter creates a limiter allowing at most maxConcurrent runs.
// Acquire waits up to maxWait for a slot before returning ErrRunInFlight.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultRunWait
	}
	return &RunLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire claims a run slot, waiting up to the limiter's timeout. The
// caller must Release exactly once per successful Acquire.
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRunInFlight
	}
}

// Release frees a previously acquired slot.
func (l *RunLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// Active returns the number of runs currently holding a slot.
func (l *RunLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until every active run completes or the context is
// cancelled. Used during graceful shutdown.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Active() == 0 {
				return nil
			}
		}
	}
}
