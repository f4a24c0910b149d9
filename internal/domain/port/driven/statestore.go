package driven

import (
	"context"
	"time"
)

// Instance status values persisted by InstanceStore.
const (
	InstanceStatusActive  = "active"
	InstanceStatusSkipped = "skipped"
	InstanceStatusClosed  = "closed"
	InstanceStatusMerged  = "merged"
)

// InstanceRecord is the durable state of one assistant instance.
type InstanceRecord struct {
	ID        string // canonical instance key, "{org}/{repo}/pull/{number}"
	Org       string
	Repo      string
	Number    int
	Status    string
	CommentID int64 // zero until the aggregated comment exists
	RunID     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InstanceStore persists assistant instances keyed by their canonical ID.
type InstanceStore interface {
	Upsert(ctx context.Context, rec InstanceRecord) error
	Get(ctx context.Context, id string) (*InstanceRecord, error)
	// SetCommentID records the aggregated comment ID. Implementations must
	// never overwrite an existing non-zero ID with a different one.
	SetCommentID(ctx context.Context, id string, commentID int64) error
	SetStatus(ctx context.Context, id, status string) error
}

// GateStore persists versioned-behavior-gate decisions per instance. A
// decision is written once, on first evaluation, and read back on every
// later evaluation so the instance never changes its mind.
type GateStore interface {
	RecordedDecision(ctx context.Context, instanceID, gate string) (enabled, found bool, err error)
	RecordDecision(ctx context.Context, instanceID, gate string, enabled bool) error
}

// ReviewProcessStore enforces at-most-one live code-review process per
// review key ("{org}/{repo}/pull/{number}:review").
type ReviewProcessStore interface {
	// Claim registers a review process for the key. It returns false when a
	// live process already holds the key, in which case the caller must not
	// start a second one.
	Claim(ctx context.Context, id string) (bool, error)
	// Finish releases the key and records the outcome.
	Finish(ctx context.Context, id, htmlURL string, failed bool) error
}
