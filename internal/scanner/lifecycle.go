package scanner

import (
	"time"

	"mcscanner/internal/report"
)

// maintenanceWorker runs periodic catalog maintenance tasks
func (s *Scanner) maintenanceWorker() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	// Run immediately on start
	s.performMaintenance()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.performMaintenance()
		}
	}
}

// performMaintenance prunes stale catalog entries, compacts the
// database when due, and regenerates the discovery report.
func (s *Scanner) performMaintenance() {
	s.log.Debug("running maintenance tasks")

	pruned, err := s.db.PruneStale(s.ctx, s.cfg.PruneAfterDays)
	if err != nil {
		s.log.Warn("failed to prune stale servers", "error", err)
	} else if pruned > 0 {
		s.log.Info("pruned stale servers", "count", pruned, "age_days", s.cfg.PruneAfterDays)
	}

	if err := s.db.PruneStats(s.ctx, s.cfg.PruneAfterDays); err != nil {
		s.log.Warn("failed to prune scan stats", "error", err)
	}

	if err := s.db.MaybeVacuum(s.ctx); err != nil {
		s.log.Warn("database vacuum failed", "error", err)
	}

	if s.cfg.ReportDir != "" {
		gen := report.NewGenerator(s.db, s.log)
		if err := gen.GenerateReport(s.ctx, s.cfg.ReportDir, 24); err != nil {
			s.log.Warn("failed to generate report", "error", err)
		}
	}

	s.log.Debug("maintenance complete")
}
