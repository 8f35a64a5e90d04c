package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mcscanner/internal/models"
)

// SaveOutcomes writes one batch of probe outcomes in a single
// transaction. Reachable outcomes upsert the full server record and its
// player sample; failure outcomes only touch last_status/last_seen on
// servers already in the catalog. The upsert is keyed by address+port
// and is last-write-wins, so replaying a batch is harmless.
func (db *DB) SaveOutcomes(ctx context.Context, outcomes []models.ProbeOutcome) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	stats := make(map[time.Time]*models.ScanStats)
	for _, o := range outcomes {
		if o.Kind == models.OutcomeReachable {
			if err := upsertServer(ctx, tx, o); err != nil {
				return fmt.Errorf("upsert %s: %w", o.Target.Addr(), err)
			}
		} else {
			if err := markSeen(ctx, tx, o); err != nil {
				return fmt.Errorf("mark %s: %w", o.Target.Addr(), err)
			}
		}
		tally(stats, o)
	}

	if err := bumpScanStats(ctx, tx, stats); err != nil {
		return fmt.Errorf("scan stats: %w", err)
	}
	return tx.Commit()
}

func upsertServer(ctx context.Context, tx *sql.Tx, o models.ProbeOutcome) error {
	st := o.Status
	var licensed, whitelisted any
	if st.Login != nil {
		licensed, whitelisted = st.Login.Licensed, st.Login.Whitelisted
	}

	row := tx.QueryRowContext(ctx, `
        INSERT INTO servers (address, port, version_name, protocol, description,
                             online, max_players, favicon, licensed, whitelisted,
                             last_status, first_seen, last_seen)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (address, port) DO UPDATE SET
            version_name = excluded.version_name,
            protocol = excluded.protocol,
            description = excluded.description,
            online = excluded.online,
            max_players = excluded.max_players,
            favicon = excluded.favicon,
            licensed = COALESCE(excluded.licensed, servers.licensed),
            whitelisted = COALESCE(excluded.whitelisted, servers.whitelisted),
            last_status = excluded.last_status,
            last_seen = excluded.last_seen
        WHERE excluded.last_seen >= servers.last_seen
        RETURNING id
    `,
		o.Target.Host, o.Target.Port, st.VersionName, st.Protocol, st.Description,
		st.Online, st.MaxPlayers, st.Favicon, licensed, whitelisted,
		string(o.Kind), o.Timestamp.UTC(), o.Timestamp.UTC(),
	)

	var serverID int64
	if err := row.Scan(&serverID); err != nil {
		if err == sql.ErrNoRows {
			// Skipped by last-write-wins; an older outcome arrived late.
			return nil
		}
		return err
	}

	for _, p := range st.Sample {
		if p.Name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO players (uuid, name, server_id, first_seen, last_seen)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT (name, server_id) DO UPDATE SET
                uuid = excluded.uuid,
                last_seen = excluded.last_seen
        `, p.UUID, p.Name, serverID, o.Timestamp.UTC(), o.Timestamp.UTC()); err != nil {
			return err
		}
	}
	return nil
}

func markSeen(ctx context.Context, tx *sql.Tx, o models.ProbeOutcome) error {
	_, err := tx.ExecContext(ctx, `
        UPDATE servers SET last_status = ?, last_seen = ?
        WHERE address = ? AND port = ? AND last_seen <= ?
    `, string(o.Kind), o.Timestamp.UTC(), o.Target.Host, o.Target.Port, o.Timestamp.UTC())
	return err
}

func tally(stats map[time.Time]*models.ScanStats, o models.ProbeOutcome) {
	hour := o.Timestamp.UTC().Truncate(time.Hour)
	s := stats[hour]
	if s == nil {
		s = &models.ScanStats{Hour: hour}
		stats[hour] = s
	}
	s.Probed++
	switch o.Kind {
	case models.OutcomeReachable:
		s.Reachable++
	case models.OutcomeUnreachable:
		s.Unreachable++
	case models.OutcomeTimedOut:
		s.TimedOut++
	case models.OutcomeProtocolError:
		s.ProtocolErrors++
	}
}

func bumpScanStats(ctx context.Context, tx *sql.Tx, stats map[time.Time]*models.ScanStats) error {
	for _, s := range stats {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO scan_stats (hour, probed, reachable, unreachable, timed_out, protocol_errors)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT (hour) DO UPDATE SET
                probed = scan_stats.probed + excluded.probed,
                reachable = scan_stats.reachable + excluded.reachable,
                unreachable = scan_stats.unreachable + excluded.unreachable,
                timed_out = scan_stats.timed_out + excluded.timed_out,
                protocol_errors = scan_stats.protocol_errors + excluded.protocol_errors
        `, s.Hour, s.Probed, s.Reachable, s.Unreachable, s.TimedOut, s.ProtocolErrors); err != nil {
			return err
		}
	}
	return nil
}

// ListServers returns known servers for the revisit pass, most recently
// seen first.
func (db *DB) ListServers(ctx context.Context, limit int) ([]models.ServerRow, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT address, port, COALESCE(version_name, ''), COALESCE(online, 0),
               COALESCE(max_players, 0), last_status, last_seen
        FROM servers
        ORDER BY last_seen DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []models.ServerRow
	for rows.Next() {
		var s models.ServerRow
		if err := rows.Scan(&s.Target.Host, &s.Target.Port, &s.VersionName,
			&s.Online, &s.MaxPlayers, &s.LastStatus, &s.LastSeen); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

// DiscoveryCounts returns per-hour probe counters for the last n hours.
func (db *DB) DiscoveryCounts(ctx context.Context, hours int) ([]models.DiscoveryPoint, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT hour, reachable, probed
        FROM scan_stats
        WHERE hour > datetime('now', '-' || ? || ' hours')
        ORDER BY hour
    `, hours)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.DiscoveryPoint
	for rows.Next() {
		var p models.DiscoveryPoint
		if err := rows.Scan(&p.Hour, &p.Reachable, &p.Probed); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CountByStatus returns how many cataloged servers carry each
// last_status value.
func (db *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT last_status, COUNT(*) FROM servers GROUP BY last_status
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
