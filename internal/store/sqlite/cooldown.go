package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CooldownStore persists the last alert time per instrument in a single
// upsert table. One writer: the pool is capped at a single connection.
type CooldownStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path in WAL mode.
func Open(path string) (*CooldownStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened cooldown store at %s", path)
	return &CooldownStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cooldowns (
			inst_id    TEXT    PRIMARY KEY,
			last_alert INTEGER NOT NULL
		);
	`)
	return err
}

func (s *CooldownStore) LastAlert(ctx context.Context, instID string) (time.Time, bool, error) {
	var sec int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_alert FROM cooldowns WHERE inst_id = ?`, instID).Scan(&sec)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("sqlite query cooldown %s: %w", instID, err)
	}
	return time.Unix(sec, 0).UTC(), true, nil
}

func (s *CooldownStore) SaveAlert(ctx context.Context, instID string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cooldowns (inst_id, last_alert) VALUES (?, ?)
		ON CONFLICT(inst_id) DO UPDATE SET last_alert = excluded.last_alert
	`, instID, t.Unix())
	if err != nil {
		return fmt.Errorf("sqlite upsert cooldown %s: %w", instID, err)
	}
	return nil
}

// Prune deletes entries older than before and returns how many were removed.
func (s *CooldownStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cooldowns WHERE last_alert < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite prune cooldowns: %w", err)
	}
	return res.RowsAffected()
}

func (s *CooldownStore) Close() error { return s.db.Close() }
