package database

import (
	"context"
	"time"
)

// PruneStale removes servers (and their players, via cascade) that have
// not been seen for the given number of days.
func (db *DB) PruneStale(ctx context.Context, days int) (int64, error) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM servers
        WHERE last_seen < datetime('now', '-' || ? || ' days')
    `, days)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneStats drops scan counters older than the given number of days.
func (db *DB) PruneStats(ctx context.Context, days int) error {
	_, err := db.ExecContext(ctx, `
        DELETE FROM scan_stats
        WHERE hour < datetime('now', '-' || ? || ' days')
    `, days)
	return err
}

// MaybeVacuum reclaims space once a month, on the first day. Repeated
// calls within the same month are no-ops.
func (db *DB) MaybeVacuum(ctx context.Context) error {
	now := time.Now()
	if !db.vacuumDue(now) {
		return nil
	}
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return err
	}
	db.mu.Lock()
	db.lastVacuum = now
	db.mu.Unlock()
	return nil
}

func (db *DB) vacuumDue(now time.Time) bool {
	if now.Day() != 1 {
		return false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lastVacuum.Year() != now.Year() || db.lastVacuum.Month() != now.Month()
}
