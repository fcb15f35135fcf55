package application

import (
	"context"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// Limiter is the counting admission gate bounding how many lookups run
// simultaneously across the whole batch. One acquire/release pair spans a
// request's entire retry lifetime, so the cap limits concurrent portal
// sessions, not concurrent requests-in-flight.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	active   *atomic.Int64
	peak     *atomic.Int64
}

func NewLimiter(capacity int) *Limiter {
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		active:   atomic.NewInt64(0),
		peak:     atomic.NewInt64(0),
	}
}

// Acquire suspends the caller until a slot is free.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	n := l.active.Inc()
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return nil
}

func (l *Limiter) Release() {
	l.active.Dec()
	l.sem.Release(1)
}

func (l *Limiter) Capacity() int {
	return l.capacity
}

// Active reports how many slots are held right now.
func (l *Limiter) Active() int64 {
	return l.active.Load()
}

// Peak reports the highest simultaneous occupancy seen since creation.
func (l *Limiter) Peak() int64 {
	return l.peak.Load()
}
