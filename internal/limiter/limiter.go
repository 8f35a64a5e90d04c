// Package limiter bounds the number of probes in flight. Each admitted
// probe holds a Ticket; capacity returns when the ticket is released.
package limiter

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Limiter is a fixed-capacity admission gate over a weighted semaphore.
type Limiter struct {
	sem   *semaphore.Weighted
	limit int
}

// New creates a Limiter admitting at most limit concurrent holders.
func New(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

// Limit returns the configured capacity.
func (l *Limiter) Limit() int {
	return l.limit
}

// Acquire blocks until capacity is available or ctx is done. Admission
// order is FIFO.
func (l *Limiter) Acquire(ctx context.Context) (*Ticket, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &Ticket{l: l}, nil
}

// Ticket is one unit of admitted capacity.
type Ticket struct {
	once sync.Once
	l    *Limiter
}

// Release returns the ticket's capacity. It releases exactly once no
// matter how many times it is called, so deferred and explicit releases
// on error paths cannot inflate capacity.
func (t *Ticket) Release() {
	t.once.Do(func() {
		t.l.sem.Release(1)
	})
}
