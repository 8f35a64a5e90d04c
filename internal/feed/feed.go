// Package feed supplies target addresses to the worker loop. A feed is a
// pull-based sequence: finite feeds return ErrExhausted once drained,
// infinite feeds never do.
package feed

import (
	"context"
	"errors"
	"sync"

	"mcscanner/internal/models"
)

// ErrExhausted signals that a feed has permanently run out of targets.
var ErrExhausted = errors.New("feed: exhausted")

// Static serves a fixed list of targets once, in order.
type Static struct {
	mu      sync.Mutex
	targets []models.Target
	next    int
}

// NewStatic creates a finite feed over the given targets.
func NewStatic(targets []models.Target) *Static {
	return &Static{targets: targets}
}

func (s *Static) Next(ctx context.Context) (models.Target, error) {
	if err := ctx.Err(); err != nil {
		return models.Target{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.targets) {
		return models.Target{}, ErrExhausted
	}
	t := s.targets[s.next]
	s.next++
	return t, nil
}
