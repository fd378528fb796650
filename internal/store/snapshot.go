package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Snapshot is a past version of a document.
type Snapshot struct {
	ID        int64
	Key       string
	Version   int64
	Body      []byte
	CreatedAt time.Time
}

// SnapshotRepo reads and prunes document history.
type SnapshotRepo struct {
	db *sql.DB
}

// List returns up to limit snapshots of key, newest first. A limit of 0
// returns all of them.
func (r *SnapshotRepo) List(ctx context.Context, key string, limit int) ([]Snapshot, error) {
	q := `SELECT id, key, version, body, created_at FROM snapshots WHERE key = ? ORDER BY version DESC`
	args := []any{key}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var body string
		if err := rows.Scan(&s.ID, &s.Key, &s.Version, &body, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Body = []byte(body)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune deletes all but the keep most recent snapshots of key.
func (r *SnapshotRepo) Prune(ctx context.Context, key string, keep int) error {
	var threshold int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM snapshots WHERE key = ? ORDER BY version DESC LIMIT 1 OFFSET ?`,
		key, keep,
	).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep snapshots exist
	}
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE key = ? AND version <= ?`, key, threshold)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
