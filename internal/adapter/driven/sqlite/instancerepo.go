package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InstanceStore = (*InstanceRepo)(nil)

// InstanceRepo is the SQLite implementation of the InstanceStore port interface.
type InstanceRepo struct {
	db *DB
}

// NewInstanceRepo creates a new InstanceRepo backed by the given DB.
func NewInstanceRepo(db *DB) *InstanceRepo {
	return &InstanceRepo{db: db}
}

// Upsert inserts or refreshes an instance record. The stored comment ID and
// creation time are preserved on conflict.
func (r *InstanceRepo) Upsert(ctx context.Context, rec driven.InstanceRecord) error {
	const query = `
		INSERT INTO instances (id, org, repo, number, status, comment_id, run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`

	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID, rec.Org, rec.Repo, rec.Number, rec.Status, rec.CommentID, rec.RunID,
		createdAt.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert instance %q: %w", rec.ID, err)
	}

	return nil
}

// Get returns the instance with the given ID, or nil when absent.
func (r *InstanceRepo) Get(ctx context.Context, id string) (*driven.InstanceRecord, error) {
	const query = `
		SELECT id, org, repo, number, status, comment_id, run_id, created_at, updated_at
		FROM instances WHERE id = ?`

	var rec driven.InstanceRecord
	var createdAt, updatedAt string

	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Org, &rec.Repo, &rec.Number, &rec.Status,
		&rec.CommentID, &rec.RunID, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance %q: %w", id, err)
	}

	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &rec, nil
}

// SetCommentID records the aggregated comment ID. A non-zero stored ID is
// never overwritten with a different one, so repeated renders keep
// converging on the same comment thread.
func (r *InstanceRepo) SetCommentID(ctx context.Context, id string, commentID int64) error {
	const query = `
		UPDATE instances
		SET comment_id = ?, updated_at = ?
		WHERE id = ? AND (comment_id = 0 OR comment_id = ?)`

	result, err := r.db.Writer.ExecContext(ctx, query,
		commentID, time.Now().UTC().Format(time.RFC3339), id, commentID)
	if err != nil {
		return fmt.Errorf("set comment id for instance %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("instance %q not found or comment id already set", id)
	}

	return nil
}

// SetStatus updates the lifecycle status of an instance.
func (r *InstanceRepo) SetStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE instances SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		status, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set status for instance %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("instance %q not found", id)
	}

	return nil
}

// parseTime parses the RFC 3339 timestamps this package writes.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
