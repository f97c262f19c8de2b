package offline

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists drafts and queues in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn and applies
// migrations. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, list string, item Item) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO list_items (list, id, payload) VALUES (?, ?, ?)`, list, item.ID, item.Payload)
	if err != nil {
		return fmt.Errorf("append to %s: %w", list, err)
	}
	return nil
}

func (s *SQLiteStore) Items(ctx context.Context, list string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM list_items WHERE list = ? ORDER BY seq`, list)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	defer rows.Close()

	out := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Payload); err != nil {
			return nil, fmt.Errorf("scan %s item: %w", list, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", list, err)
	}
	return out, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, list string, item Item) error {
	_, err := s.db.ExecContext(ctx, `UPDATE list_items SET payload = ? WHERE list = ? AND id = ?`, item.Payload, list, item.ID)
	if err != nil {
		return fmt.Errorf("replace in %s: %w", list, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, list, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM list_items WHERE list = ? AND id = ?`, list, id); err != nil {
		return fmt.Errorf("remove from %s: %w", list, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
