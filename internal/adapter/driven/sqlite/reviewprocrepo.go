package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewProcessStore = (*ReviewProcessRepo)(nil)

// ReviewProcessRepo is the SQLite implementation of the ReviewProcessStore
// port interface.
type ReviewProcessRepo struct {
	db *DB
}

// NewReviewProcessRepo creates a new ReviewProcessRepo backed by the given DB.
func NewReviewProcessRepo(db *DB) *ReviewProcessRepo {
	return &ReviewProcessRepo{db: db}
}

// Claim registers a live review process for the key. The conditional upsert
// only succeeds when no row exists or the existing process has finished, so
// exactly one caller wins while a review is in flight.
func (r *ReviewProcessRepo) Claim(ctx context.Context, id string) (bool, error) {
	const query = `
		INSERT INTO review_processes (id, live, html_url, failed, started_at, finished_at)
		VALUES (?, 1, '', 0, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			live = 1,
			html_url = '',
			failed = 0,
			started_at = excluded.started_at,
			finished_at = NULL
		WHERE review_processes.live = 0`

	result, err := r.db.Writer.ExecContext(ctx, query, id, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("claim review process %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows > 0, nil
}

// Finish releases the key and records the outcome.
func (r *ReviewProcessRepo) Finish(ctx context.Context, id, htmlURL string, failed bool) error {
	const query = `
		UPDATE review_processes
		SET live = 0, html_url = ?, failed = ?, finished_at = ?
		WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		htmlURL, failed, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("finish review process %q: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("review process %q not found", id)
	}

	return nil
}
