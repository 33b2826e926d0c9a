// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrLocked is returned when changing the source URL of a locked configuration.
	ErrLocked = errors.New("source configuration is locked")
	// ErrNoSnapshot is returned when no sync has been stored yet.
	ErrNoSnapshot = errors.New("no synced data yet")
)

const (
	keySourceURL = "source_url"
	keyAutoSync  = "auto_sync"
	keyLocked    = "locked"

	// Fixed width so lexical order matches time order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps SQLite access for synced sales data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			fetched_at TEXT NOT NULL,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_records (
			snapshot_id TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			created_time TEXT NOT NULL,
			sender TEXT NOT NULL,
			order_id TEXT NOT NULL,
			item TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, row_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// NewSnapshotID returns a fresh snapshot identifier.
func NewSnapshotID() string {
	return uuid.NewString()
}

// Settings loads the persisted source settings. Unset values are zero.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return model.Settings{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	var out model.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Settings{}, err
		}
		switch key {
		case keySourceURL:
			out.SourceURL = value
		case keyAutoSync:
			out.AutoSync = parseBool(value)
		case keyLocked:
			out.Locked = parseBool(value)
		}
	}
	if err := rows.Err(); err != nil {
		return model.Settings{}, err
	}
	return out, nil
}

// SetSourceURL stores the data source URL. It fails with ErrLocked when the
// configuration is locked.
func (s *Store) SetSourceURL(ctx context.Context, url string) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if settings.Locked {
		return ErrLocked
	}
	return s.setValue(ctx, keySourceURL, url)
}

// SetLocked locks or unlocks the source configuration.
func (s *Store) SetLocked(ctx context.Context, locked bool) error {
	return s.setValue(ctx, keyLocked, strconv.FormatBool(locked))
}

// SetAutoSync toggles periodic syncing.
func (s *Store) SetAutoSync(ctx context.Context, enabled bool) error {
	return s.setValue(ctx, keyAutoSync, strconv.FormatBool(enabled))
}

func (s *Store) setValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// SaveSnapshot stores a synced snapshot with its raw records.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot, raws []model.RawRecord) (err error) {
	if snap.ID == "" {
		return fmt.Errorf("snapshot id is empty")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, fetched_at, source, row_count, warning_count) VALUES (?, ?, ?, ?, ?)`,
		snap.ID,
		snap.FetchedAt.UTC().Format(timestampLayout),
		snap.Source,
		snap.RowCount,
		snap.WarningCount,
	)
	if err != nil {
		return err
	}

	if len(raws) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_records (snapshot_id, row_index, created_time, sender, order_id, item)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, raw := range raws {
			if _, err = stmt.ExecContext(ctx, snap.ID, i, raw.CreatedTime, raw.Sender, raw.OrderID, raw.Item); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// LatestSnapshot returns the most recent snapshot and its records in source order.
func (s *Store) LatestSnapshot(ctx context.Context) (model.Snapshot, []model.RawRecord, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	if len(snaps) == 0 {
		return model.Snapshot{}, nil, ErrNoSnapshot
	}
	raws, err := s.SnapshotRecords(ctx, snaps[0].ID)
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	return snaps[0], raws, nil
}

// SnapshotRecords loads the raw records of one snapshot.
func (s *Store) SnapshotRecords(ctx context.Context, id string) ([]model.RawRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_time, sender, order_id, item FROM snapshot_records
		 WHERE snapshot_id = ? ORDER BY row_index`, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	var out []model.RawRecord
	for rows.Next() {
		var raw model.RawRecord
		if err := rows.Scan(&raw.CreatedTime, &raw.Sender, &raw.OrderID, &raw.Item); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSnapshots returns snapshots newest first. A limit <= 0 returns all.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]model.Snapshot, error) {
	query := `SELECT id, fetched_at, source, row_count, warning_count FROM snapshots ORDER BY fetched_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var fetchedAt string
		if err := rows.Scan(&snap.ID, &fetchedAt, &snap.Source, &snap.RowCount, &snap.WarningCount); err != nil {
			return nil, err
		}
		t, err := time.Parse(timestampLayout, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
		}
		snap.FetchedAt = t
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PruneSnapshots deletes all but the newest keep snapshots.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	snaps, err := s.ListSnapshots(ctx, 0)
	if err != nil {
		return 0, err
	}
	if len(snaps) <= keep {
		return 0, nil
	}
	removed := 0
	for _, snap := range snaps[keep:] {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_records WHERE snapshot_id = ?`, snap.ID); err != nil {
			return removed, err
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
