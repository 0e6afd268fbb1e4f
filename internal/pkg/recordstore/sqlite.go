package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createSQLiteCollectionsTable = `
	CREATE TABLE IF NOT EXISTS record_collections (
		name       TEXT PRIMARY KEY,
		body       TEXT NOT NULL,
		revision   INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	)
`

// SQLiteBackend keeps every collection as one row of a local SQLite file.
// The snapshot text is stored verbatim.
type SQLiteBackend struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) the SQLite file at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createSQLiteCollectionsTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create record_collections table: %w", err)
	}
	return &SQLiteBackend{sqlDB: sqlDB}, nil
}

func (b *SQLiteBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := b.sqlDB.QueryRowContext(ctx, `SELECT body FROM record_collections WHERE name = ?`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read collection: %w", err)
	}
	return []byte(body), nil
}

func (b *SQLiteBackend) Replace(ctx context.Context, name string, data []byte) error {
	_, err := b.sqlDB.ExecContext(
		ctx,
		`INSERT INTO record_collections (name, body, revision, updated_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   body = excluded.body,
		   revision = record_collections.revision + 1,
		   updated_at = excluded.updated_at`,
		name,
		string(data),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("replace collection: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}
