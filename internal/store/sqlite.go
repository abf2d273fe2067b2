package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hearth/internal/player"
)

// SQLiteStore keeps one JSON document row per player. rev counts saves for
// operator visibility; nothing conditions writes on it.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps single-row upserts cheap; NORMAL is a fine durability
	// tradeoff for a store that is reloaded before every mutation.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS players (
		player_id  TEXT PRIMARY KEY,
		doc        TEXT NOT NULL,
		rev        INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, playerID string) (*player.Record, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM players WHERE player_id=?`, playerID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrUnavailable, playerID, err)
	}
	rec, err := player.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", playerID, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Save(ctx context.Context, playerID string, rec *player.Record) error {
	b, err := player.Encode(rec)
	if err != nil {
		return fmt.Errorf("save %s: %w", playerID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players(player_id, doc, rev, updated_at) VALUES(?,?,1,?)
		ON CONFLICT(player_id) DO UPDATE SET
			doc=excluded.doc,
			rev=players.rev+1,
			updated_at=excluded.updated_at`,
		playerID, string(b), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrUnavailable, playerID, err)
	}
	return nil
}

func (s *SQLiteStore) EarnBalance(ctx context.Context, playerID string, amount int) (*player.Record, error) {
	return s.mutateBalance(ctx, playerID, amount, false)
}

func (s *SQLiteStore) SpendBalance(ctx context.Context, playerID string, amount int) (*player.Record, error) {
	return s.mutateBalance(ctx, playerID, amount, true)
}

// mutateBalance runs the read-modify-write inside one transaction so the two
// balance mutators are atomic with respect to each other.
func (s *SQLiteStore) mutateBalance(ctx context.Context, playerID string, amount int, spend bool) (*player.Record, error) {
	if amount < 0 {
		return nil, fmt.Errorf("negative amount %d", amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %s: %v", ErrUnavailable, playerID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM players WHERE player_id=?`, playerID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: balance %s: %v", ErrUnavailable, playerID, err)
	}

	rec, err := player.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("balance %s: %w", playerID, err)
	}
	if spend {
		if rec.Balance < amount {
			return nil, ErrInsufficientFunds
		}
		rec.Balance -= amount
	} else {
		rec.Balance += amount
	}

	b, err := player.Encode(rec)
	if err != nil {
		return nil, fmt.Errorf("balance %s: %w", playerID, err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE players SET doc=?, rev=rev+1, updated_at=? WHERE player_id=?`,
		string(b), time.Now().UTC().Format(time.RFC3339), playerID)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %s: %v", ErrUnavailable, playerID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: balance %s: %v", ErrUnavailable, playerID, err)
	}
	return rec, nil
}

// Players lists known player ids in sorted order (operator tooling).
func (s *SQLiteStore) Players(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player_id FROM players ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list players: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
