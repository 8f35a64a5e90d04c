package models

import (
	"context"
)

// Feed supplies targets to probe. Next blocks until a target is
// available, the feed is exhausted, or the context is cancelled.
// Implementations signal permanent exhaustion with feed.ErrExhausted.
type Feed interface {
	Next(ctx context.Context) (Target, error)
}

// Prober executes one full probe attempt against one target
type Prober interface {
	Probe(ctx context.Context, target Target) ProbeOutcome
}

// Sink accepts completed probe outcomes for batched persistence
type Sink interface {
	Submit(ctx context.Context, outcome ProbeOutcome) error
	Close() error
}

// Store defines operations for data persistence
type Store interface {
	SaveOutcomes(ctx context.Context, outcomes []ProbeOutcome) error
	ListServers(ctx context.Context, limit int) ([]ServerRow, error)
	Close() error
}
