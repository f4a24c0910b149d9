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
var _ driven.GateStore = (*GateRepo)(nil)

// GateRepo is the SQLite implementation of the GateStore port interface.
type GateRepo struct {
	db *DB
}

// NewGateRepo creates a new GateRepo backed by the given DB.
func NewGateRepo(db *DB) *GateRepo {
	return &GateRepo{db: db}
}

// RecordedDecision returns the persisted gate decision for an instance, with
// found=false when the gate has never been evaluated for it.
func (r *GateRepo) RecordedDecision(ctx context.Context, instanceID, gate string) (enabled, found bool, err error) {
	const query = `SELECT enabled FROM behavior_gates WHERE instance_id = ? AND gate = ?`

	err = r.db.Reader.QueryRowContext(ctx, query, instanceID, gate).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get gate %q for instance %q: %w", gate, instanceID, err)
	}

	return enabled, true, nil
}

// RecordDecision stores a gate decision. The first write wins: an instance
// never changes its mind about a gate once decided.
func (r *GateRepo) RecordDecision(ctx context.Context, instanceID, gate string, enabled bool) error {
	const query = `
		INSERT INTO behavior_gates (instance_id, gate, enabled, decided_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(instance_id, gate) DO NOTHING`

	_, err := r.db.Writer.ExecContext(ctx, query,
		instanceID, gate, enabled, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record gate %q for instance %q: %w", gate, instanceID, err)
	}

	return nil
}
