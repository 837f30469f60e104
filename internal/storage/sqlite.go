package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/monte/internal/sampling"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	campaign      TEXT NOT NULL,
	run_index     INTEGER NOT NULL,
	reason        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	trajectory    TEXT
);

CREATE TABLE IF NOT EXISTS samples (
	run_id      TEXT NOT NULL,
	observable  TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	progress    REAL NOT NULL,
	values_json TEXT NOT NULL,
	PRIMARY KEY (run_id, observable, idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// SQLiteStore keeps runs and their samples in one database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) (string, error) {
	metaJSON, err := json.Marshal(rec.Meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	var traj any
	if len(rec.Trajectory) > 0 {
		b, err := json.Marshal(rec.Trajectory)
		if err != nil {
			return "", fmt.Errorf("marshal trajectory: %w", err)
		}
		traj = string(b)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, campaign, run_index, reason, created_at, metadata_json, trajectory)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Meta.ID, rec.Meta.Campaign, rec.Meta.Run, rec.Meta.Reason.String(),
		rec.Meta.Timestamp.Format(time.RFC3339Nano), string(metaJSON), traj,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, observable, idx, progress, values_json) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()

	for _, series := range rec.Series {
		for _, smp := range series.Samples() {
			values, err := json.Marshal(smp.Values)
			if err != nil {
				return "", fmt.Errorf("marshal %s sample %d: %w", series.Name(), smp.Index, err)
			}
			if _, err := stmt.ExecContext(ctx, rec.Meta.ID, series.Name(), smp.Index, smp.Progress, string(values)); err != nil {
				return "", fmt.Errorf("insert %s sample %d: %w", series.Name(), smp.Index, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return rec.Meta.ID, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]RunMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT metadata_json FROM runs ORDER BY created_at, run_index`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT metadata_json FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	var meta RunMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadSeries(ctx context.Context, runID, name string) ([]sampling.Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, progress, values_json FROM samples WHERE run_id = ? AND observable = ? ORDER BY idx`,
		runID, name)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	samples := make([]sampling.Sample, 0)
	for rows.Next() {
		var smp sampling.Sample
		var raw string
		if err := rows.Scan(&smp.Index, &smp.Progress, &raw); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &smp.Values); err != nil {
			return nil, fmt.Errorf("decode sample %d: %w", smp.Index, err)
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// LoadTrajectory returns the raw snapshots of a run, nil when none were taken.
func (s *SQLiteStore) LoadTrajectory(ctx context.Context, runID string) (json.RawMessage, error) {
	var raw sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT trajectory FROM runs WHERE run_id = ?`, runID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("load trajectory: %w", err)
	}
	if !raw.Valid {
		return nil, nil
	}
	return json.RawMessage(raw.String), nil
}
