// Package store persists snapshots and reports to a local SQLite database.
// It is the sink side of the monitoring pipeline: the runner writes each
// snapshot as it is captured, and a finished run's report is written once.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/driftwatch/internal/document"
	"github.com/ppiankov/driftwatch/internal/monitor"
	"github.com/ppiankov/driftwatch/internal/report"
)

type Store struct {
	db *sql.DB
}

// Run describes one stored monitoring run.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	Snapshots int
	HasReport bool
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun registers a run before its first snapshot is written.
func (s *Store) CreateRun(ctx context.Context, id, sourceName string, startedAt time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(sourceName) == "" {
		return errors.New("source is required")
	}
	if startedAt.IsZero() {
		return errors.New("started_at is required")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs(id, source, started_at) VALUES(?, ?, ?)",
		id, sourceName, formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// SaveSnapshot writes one captured snapshot. Items are stored as the JSON
// array of item documents, so a snapshot round-trips through the same
// document codec the diff engine reads.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, snap monitor.Snapshot) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	if snap.Iteration < 1 {
		return errors.New("iteration must be at least 1")
	}
	if snap.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}

	docs := make([]document.Value, len(snap.Items))
	for i, it := range snap.Items {
		docs[i] = it.Doc
	}
	itemsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO snapshots(run_id, iteration, captured_at, items) VALUES(?, ?, ?, ?)",
		runID, snap.Iteration, formatTime(snap.Timestamp), string(itemsJSON),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetSnapshots rebuilds a run's snapshots in iteration order. A snapshot
// whose items column is empty or unreadable comes back with no items rather
// than failing the whole read.
func (s *Store) GetSnapshots(ctx context.Context, runID string) ([]monitor.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT iteration, captured_at, items
		FROM snapshots
		WHERE run_id = ?
		ORDER BY iteration ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []monitor.Snapshot
	for rows.Next() {
		var (
			iteration  int
			capturedAt string
			itemsJSON  string
		)
		if err := rows.Scan(&iteration, &capturedAt, &itemsJSON); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		ts, err := parseTime(capturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse captured_at: %w", err)
		}
		snapshots = append(snapshots, monitor.Snapshot{
			Iteration: iteration,
			Timestamp: ts,
			Items:     decodeItems(itemsJSON),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// decodeItems tolerates malformed rows: anything unreadable, non-array, or
// without a usable id is dropped, leaving the snapshot with fewer (possibly
// zero) items.
func decodeItems(itemsJSON string) []monitor.Item {
	var docs []document.Value
	if err := json.Unmarshal([]byte(itemsJSON), &docs); err != nil {
		return nil
	}
	var items []monitor.Item
	for _, doc := range docs {
		if item, ok := monitor.NewItem(doc); ok {
			items = append(items, item)
		}
	}
	return items
}

// SaveReport writes a run's completed report, replacing any previous one.
func (s *Store) SaveReport(ctx context.Context, runID string, rep report.Report, createdAt time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	if createdAt.IsZero() {
		return errors.New("created_at is required")
	}

	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports(run_id, created_at, report) VALUES(?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			created_at = excluded.created_at,
			report = excluded.report
	`, runID, formatTime(createdAt), string(reportJSON))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport reads back a stored report.
func (s *Store) GetReport(ctx context.Context, runID string) (report.Report, error) {
	if s == nil || s.db == nil {
		return report.Report{}, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reportJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT report FROM reports WHERE run_id = ?", runID,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, fmt.Errorf("no report for run %s", runID)
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("get report: %w", err)
	}

	var rep report.Report
	if err := json.Unmarshal([]byte(reportJSON), &rep); err != nil {
		return report.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// ListRuns returns stored runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.started_at,
			COUNT(sn.iteration) AS snapshots,
			EXISTS(SELECT 1 FROM reports rp WHERE rp.run_id = r.id) AS has_report
		FROM runs r
		LEFT JOIN snapshots sn ON sn.run_id = r.id
		GROUP BY r.id, r.source, r.started_at
		ORDER BY r.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run       Run
			startedAt string
			hasReport int
		)
		if err := rows.Scan(&run.ID, &run.Source, &startedAt, &run.Snapshots, &hasReport); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = parseTime(startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		run.HasReport = hasReport != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return time.Time{}.UTC().Format(time.RFC3339Nano)
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}
