// Package sqlite provides a run-history archive backed by a local SQLite
// database file, the default archive backend for single-host deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/gridswap/swapdash/internal/log"
	"github.com/gridswap/swapdash/internal/types"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS run_history (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	scenario_id TEXT NOT NULL,
	scenario_name TEXT NOT NULL,
	status TEXT NOT NULL,
	duration_hours INTEGER NOT NULL,
	interventions BLOB,
	kpis BLOB,
	costs BLOB,
	timeline BLOB,
	completed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_history_project ON run_history(project_id, completed_at);
`

// Storage holds the connection for a SQLite archive backend
type Storage struct {
	db *sql.DB
}

// New sets up a new SQLite archive backend
func New(ctx context.Context, path string) (*Storage, error) {
	log.Info("opening SQLite run archive...")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite archive at %s: %w", path, err)
	}

	// modernc's driver does not support concurrent writers on one connection
	// pool against the same file.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create run archive schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// StartArchiveEngine creates a goroutine loop to receive run records and
// write them to the archive
func (s *Storage) StartArchiveEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.RunRecord {
	log.Info("starting SQLite archive engine...")
	recordChan := make(chan types.RunRecord, 10)
	go s.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (s *Storage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.RunRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := s.StoreRun(ctx, r); err != nil {
				log.Error("could not archive run:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received. Cancelling SQLite archive engine.")
			s.db.Close()
			return
		}
	}
}

// StoreRun stores a run record in the archive
func (s *Storage) StoreRun(ctx context.Context, r types.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_history
		 (id, project_id, scenario_id, scenario_name, status, duration_hours,
		  interventions, kpis, costs, timeline, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProjectID, r.ScenarioID, r.ScenarioName, r.Status, r.DurationHours,
		r.Interventions, r.KPIs, r.Costs, r.Timeline, r.CompletedAt)
	return err
}

// RecentRuns returns the most recent archived runs for a project, newest
// first. The timeline blob is omitted; it is only needed for replay.
func (s *Storage) RecentRuns(ctx context.Context, projectID string, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, scenario_id, scenario_name, status, duration_hours,
		        interventions, kpis, costs, completed_at
		 FROM run_history WHERE project_id = ?
		 ORDER BY completed_at DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.RunRecord
	for rows.Next() {
		var r types.RunRecord
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.ScenarioID, &r.ScenarioName,
			&r.Status, &r.DurationHours, &r.Interventions, &r.KPIs, &r.Costs,
			&r.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
