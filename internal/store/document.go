package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Document is one stored JSON body.
type Document struct {
	Key       string
	Version   int64
	Body      []byte
	UpdatedAt time.Time
}

// DocumentRepo reads and writes keyed JSON documents. Each write also
// appends a snapshot of the body.
type DocumentRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// Get returns the document at key, or nil if none exists.
func (r *DocumentRepo) Get(ctx context.Context, key string) (*Document, error) {
	var d Document
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT key, version, body, updated_at FROM documents WHERE key = ?`, key,
	).Scan(&d.Key, &d.Version, &body, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", key, err)
	}
	d.Body = []byte(body)
	return &d, nil
}

// Put replaces the document at key and returns the new version.
func (r *DocumentRepo) Put(ctx context.Context, key string, body []byte, now time.Time) (int64, error) {
	version, err := r.seq.Next(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (key, version, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET version = excluded.version, body = excluded.body, updated_at = excluded.updated_at`,
		key, version, string(body), now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("put document %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (key, version, body, created_at) VALUES (?, ?, ?, ?)`,
		key, version, string(body), now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("snapshot document %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

// Delete removes the document at key. History is kept.
func (r *DocumentRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}
