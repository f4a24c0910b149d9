package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// Behavior gate names. A gate pins one behavior change per instance: the
// first evaluation records the decision, every later evaluation replays it,
// so an instance never flips behavior mid-life when a rollout changes.
const (
	// GateGuidelineDoc controls loading the repository guideline document
	// before generating the diff summary.
	GateGuidelineDoc = "use-guideline-doc"

	// GateChangeLog controls recording merged pull requests in the external
	// change log.
	GateChangeLog = "use-change-log"
)

// rolloutGates is the current rollout state for instances that have not
// decided yet. Removing an entry (or setting it false) stops the behavior
// for new instances only.
var rolloutGates = map[string]bool{
	GateGuidelineDoc: true,
	GateChangeLog:    true,
}

// BehaviorGates evaluates versioned behavior gates with per-instance
// persistence.
type BehaviorGates struct {
	store   driven.GateStore
	rollout map[string]bool
	logger  *slog.Logger
}

// NewBehaviorGates creates a gate evaluator using the current rollout table.
func NewBehaviorGates(store driven.GateStore, logger *slog.Logger) *BehaviorGates {
	return newBehaviorGates(store, rolloutGates, logger)
}

func newBehaviorGates(store driven.GateStore, rollout map[string]bool, logger *slog.Logger) *BehaviorGates {
	return &BehaviorGates{store: store, rollout: rollout, logger: logger}
}

// Enabled reports whether a gate is enabled for the instance. The decision
// is read before it is made: a recorded decision always wins over the
// rollout table.
func (g *BehaviorGates) Enabled(ctx context.Context, instanceID, gate string) (bool, error) {
	enabled, found, err := g.store.RecordedDecision(ctx, instanceID, gate)
	if err != nil {
		return false, fmt.Errorf("read gate decision: %w", err)
	}
	if found {
		return enabled, nil
	}

	enabled = g.rollout[gate]
	if err := g.store.RecordDecision(ctx, instanceID, gate, enabled); err != nil {
		return false, fmt.Errorf("record gate decision: %w", err)
	}

	g.logger.Info("behavior gate decided",
		"instance_id", instanceID,
		"gate", gate,
		"enabled", enabled,
	)
	return enabled, nil
}
