package scanner

import (
	"context"
	"errors"
	"time"

	"mcscanner/internal/feed"
	"mcscanner/internal/models"
)

// admitLoop pulls targets from the feed and launches one probe
// goroutine per target, gated by the concurrency limiter.
func (s *Scanner) admitLoop() {
	defer s.wg.Done()

	for {
		target, err := s.feed.Next(s.ctx)
		if err != nil {
			if errors.Is(err, feed.ErrExhausted) {
				if s.cfg.ExhaustedWait > 0 {
					s.log.Debug("feed exhausted, waiting", "wait", s.cfg.ExhaustedWait)
					select {
					case <-s.ctx.Done():
						return
					case <-time.After(s.cfg.ExhaustedWait):
					}
					continue
				}
				s.log.Info("feed exhausted, sweep complete")
				s.finish()
			}
			return
		}

		ticket, err := s.lim.Acquire(s.ctx)
		if err != nil {
			return
		}

		s.probes.Add(1)
		go func() {
			defer s.probes.Done()
			defer ticket.Release()
			s.performProbe(target)
		}()
	}
}

// performProbe executes a single probe and forwards the outcome to the
// sink. The probe runs on a context detached from shutdown so in-flight
// attempts drain naturally, bounded by the probe timeout.
func (s *Scanner) performProbe(target models.Target) {
	ctx := context.WithoutCancel(s.ctx)
	outcome := s.prober.Probe(ctx, target)
	if err := s.sink.Submit(ctx, outcome); err != nil {
		s.log.Warn("failed to submit outcome", "target", target.Addr(), "error", err)
	}
}

// revisitWorker periodically re-probes servers already in the catalog
// so their status and player samples stay fresh.
func (s *Scanner) revisitWorker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RevisitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.revisitKnown()
		}
	}
}

func (s *Scanner) revisitKnown() {
	rows, err := s.db.ListServers(s.ctx, s.cfg.RevisitLimit)
	if err != nil {
		s.log.Warn("failed to list servers for revisit", "error", err)
		return
	}
	if len(rows) == 0 {
		return
	}
	s.log.Debug("revisiting known servers", "count", len(rows))

	for _, row := range rows {
		ticket, err := s.lim.Acquire(s.ctx)
		if err != nil {
			return
		}
		s.revisits.Add(1)
		go func(target models.Target) {
			defer s.revisits.Done()
			defer ticket.Release()
			s.performProbe(target)
		}(row.Target)
	}
}
