package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/dayflow/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const createPostgresCollectionsTable = `
	CREATE TABLE IF NOT EXISTS record_collections (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		revision   BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

const upsertPostgresCollection = `
	INSERT INTO record_collections (name, body, revision, updated_at)
	VALUES ($1, $2::jsonb, 1, NOW())
	ON CONFLICT (name) DO UPDATE
	SET body = EXCLUDED.body,
		revision = record_collections.revision + 1,
		updated_at = NOW()
`

// PostgresBackend keeps every collection as one JSONB row of record_collections.
// Transact holds a row lock for the duration of a WithLock body, so several
// application instances sharing the database serialize their writes.
type PostgresBackend struct {
	db *database.DB
}

func NewPostgresBackend(ctx context.Context, db *database.DB) (*PostgresBackend, error) {
	if _, err := db.Exec(ctx, createPostgresCollectionsTable); err != nil {
		return nil, fmt.Errorf("failed to create record_collections table: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRow(ctx, `SELECT body FROM record_collections WHERE name = $1`, name).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	return body, nil
}

func (b *PostgresBackend) Replace(ctx context.Context, name string, data []byte) error {
	if _, err := b.db.Exec(ctx, upsertPostgresCollection, name, string(data)); err != nil {
		return fmt.Errorf("failed to replace collection: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Transact(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error {
	var bodyErr error

	err := database.WithTransaction(ctx, b.db, func(tx pgx.Tx) error {
		// FOR UPDATE locks nothing while the row does not exist yet, so the
		// first writers of a collection serialize on an advisory lock instead.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
			return fmt.Errorf("lock %s: %w", name, err)
		}

		var current []byte
		err := tx.QueryRow(ctx, `SELECT body FROM record_collections WHERE name = $1 FOR UPDATE`, name).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock %s: %w", name, err)
		}

		next, err := fn(current)
		if err != nil {
			bodyErr = err
			return err
		}

		if _, err := tx.Exec(ctx, upsertPostgresCollection, name, string(next)); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if bodyErr != nil {
		return bodyErr
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

func (b *PostgresBackend) Close() error {
	b.db.Close()
	return nil
}
