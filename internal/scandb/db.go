// Package scandb persists scan runs and per-channel results to sqlite so
// past scans can be compared and reports regenerated.
package scandb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/burst-data/qscan/internal/qscan"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the scan database at path and applies pending
// migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan database: %w", err)
	}
	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Run is one scan invocation.
type Run struct {
	ID         string
	TargetTime float64
	Created    time.Time
	Config     string // JSON snapshot of the effective configuration
}

// NewRun allocates a run record with a fresh id.
func NewRun(targetTime float64, cfg any) (Run, error) {
	snapshot, err := json.Marshal(cfg)
	if err != nil {
		return Run{}, fmt.Errorf("failed to snapshot config: %w", err)
	}
	return Run{
		ID:         uuid.NewString(),
		TargetTime: targetTime,
		Created:    time.Now().UTC(),
		Config:     string(snapshot),
	}, nil
}

// RecordRun inserts the run row.
func (db *DB) RecordRun(run Run) error {
	_, err := db.Exec(
		`INSERT INTO scan_runs (run_id, target_time, created, config) VALUES (?, ?, ?, ?)`,
		run.ID, run.TargetTime, run.Created.Format(time.RFC3339Nano), run.Config,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordChannelResult inserts one per-channel result row for the run.
func (db *DB) RecordChannelResult(runID string, res qscan.ChannelResult) error {
	var reason sql.NullString
	if res.Dropped {
		reason = sql.NullString{String: string(res.Reason), Valid: true}
	}
	var whitenedTiles, rawTiles int
	if res.Whitened != nil {
		whitenedTiles = len(res.Whitened.Tiles)
	}
	if res.Raw != nil {
		rawTiles = len(res.Raw.Tiles)
	}

	_, err := db.Exec(
		`INSERT INTO channel_results
			(run_id, channel, dropped, reason, q, peak_energy, peak_snr,
			 peak_time, peak_frequency, threshold, whitened_tiles, raw_tiles,
			 elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Channel, res.Dropped, reason,
		res.Q, res.PeakEnergy, res.PeakSNR,
		res.PeakTime, res.PeakFrequency, res.Threshold,
		whitenedTiles, rawTiles,
		res.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record channel result %s: %w", res.Channel, err)
	}
	return nil
}

// ChannelRow is a persisted channel result.
type ChannelRow struct {
	Channel       string
	Dropped       bool
	Reason        string
	Q             float64
	PeakEnergy    float64
	PeakSNR       float64
	PeakTime      float64
	PeakFrequency float64
	Threshold     float64
	WhitenedTiles int
	RawTiles      int
}

// ChannelResults returns the persisted results for a run, ordered by
// channel name.
func (db *DB) ChannelResults(runID string) ([]ChannelRow, error) {
	rows, err := db.Query(
		`SELECT channel, dropped, COALESCE(reason, ''), q, peak_energy,
			peak_snr, peak_time, peak_frequency, threshold,
			whitened_tiles, raw_tiles
		 FROM channel_results WHERE run_id = ? ORDER BY channel`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel results: %w", err)
	}
	defer rows.Close()

	var out []ChannelRow
	for rows.Next() {
		var r ChannelRow
		if err := rows.Scan(
			&r.Channel, &r.Dropped, &r.Reason, &r.Q, &r.PeakEnergy,
			&r.PeakSNR, &r.PeakTime, &r.PeakFrequency, &r.Threshold,
			&r.WhitenedTiles, &r.RawTiles,
		); err != nil {
			return nil, fmt.Errorf("failed to scan channel result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
