// Package persistence provides SQLite-based storage for recorded run
// series, addressable by (run, agent, step).
package persistence

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/chainflow/internal/recorder"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		orders_created INTEGER NOT NULL,
		orders_completed INTEGER NOT NULL,
		orders_infeasible INTEGER NOT NULL,
		bankruptcies INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agent_series (
		run_id TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		step INTEGER NOT NULL,
		working_capital REAL NOT NULL,
		financing REAL NOT NULL,
		default_probability REAL NOT NULL,
		total_assets REAL NOT NULL,
		total_liabilities REAL NOT NULL,
		equity REAL NOT NULL,
		PRIMARY KEY (run_id, agent_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_series_run_agent ON agent_series(run_id, agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes one run's header and full series set in a single
// transaction.
func (db *DB) SaveRun(runID string, seed int64, rec *recorder.Recorder) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, seed, steps, agents, orders_created, orders_completed, orders_infeasible, bankruptcies, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seed, rec.Steps(), len(rec.AgentIDs()),
		rec.OrdersCreated, rec.OrdersCompleted, rec.OrdersInfeasible, rec.Bankruptcies,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO agent_series
		(run_id, agent_id, step, working_capital, financing, default_probability,
		 total_assets, total_liabilities, equity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range rec.AgentIDs() {
		series, ok := rec.SeriesFor(id)
		if !ok {
			continue
		}
		for step := range series.WorkingCapital {
			_, err := stmt.Exec(
				runID, uint64(id), step,
				series.WorkingCapital[step],
				series.Financing[step],
				series.DefaultProbability[step],
				series.TotalAssets[step],
				series.TotalLiabilities[step],
				series.Equity[step],
			)
			if err != nil {
				return fmt.Errorf("insert series for agent %d step %d: %w", id, step, err)
			}
		}
	}

	return tx.Commit()
}

// RunCount returns the number of stored runs.
func (db *DB) RunCount() (int, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs"); err != nil {
		return 0, err
	}
	return n, nil
}

// WorkingCapitalPath loads one agent's stored working-capital series for a
// run, ordered by step.
func (db *DB) WorkingCapitalPath(runID string, agentID uint64) ([]float64, error) {
	var path []float64
	err := db.conn.Select(&path,
		"SELECT working_capital FROM agent_series WHERE run_id = ? AND agent_id = ? ORDER BY step",
		runID, agentID)
	if err != nil {
		return nil, fmt.Errorf("load series for agent %d: %w", agentID, err)
	}
	return path, nil
}
