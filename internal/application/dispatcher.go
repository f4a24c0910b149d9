package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// actorQueueSize bounds the pending events per instance. Dispatch blocks
// when an instance falls this far behind.
const actorQueueSize = 16

// Dispatcher routes incoming events to per-instance actors. Each actor is a
// single goroutine owning one AssistantContext: events for the same pull
// request are processed strictly in arrival order with no locking, while
// different pull requests proceed independently.
type Dispatcher struct {
	assistant *Assistant
	logger    *slog.Logger

	mu     sync.Mutex
	actors map[string]*actor
	closed bool

	quit chan struct{}
	wg   sync.WaitGroup
}

type actor struct {
	events chan model.Event
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(assistant *Assistant, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		assistant: assistant,
		logger:    logger,
		actors:    make(map[string]*actor),
		quit:      make(chan struct{}),
	}
}

// Dispatch delivers one event. A pull_request event for an unknown instance
// starts a new actor; a comment event for an unknown instance is dropped,
// because there is no context to apply it to.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event) error {
	id := ev.ID()
	if id == (model.InstanceID{}) {
		return fmt.Errorf("event carries no instance identity")
	}
	key := id.String()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher is shut down")
	}

	if act, ok := d.actors[key]; ok {
		d.mu.Unlock()
		select {
		case act.events <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-d.quit:
			return fmt.Errorf("dispatcher is shut down")
		}
	}

	if ev.Kind != model.EventPullRequest || ev.PullRequest == nil {
		d.mu.Unlock()
		d.logger.Warn("dropping comment event for unknown instance", "instance_id", key)
		return nil
	}

	act := &actor{events: make(chan model.Event, actorQueueSize)}
	d.actors[key] = act
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(key, act, ev.PullRequest)
	return nil
}

// run is the actor loop of one instance. It bootstraps from the first event,
// then applies queued events in order until the pull request reaches a
// terminal state, and finalizes.
func (d *Dispatcher) run(key string, act *actor, first *model.PullRequestEvent) {
	defer d.wg.Done()
	defer d.remove(key)

	// The actor outlives the HTTP request that delivered the first event.
	ctx := context.Background()

	actx, skipped, err := d.assistant.Bootstrap(ctx, first)
	if err != nil {
		d.logger.Error("failed to bootstrap instance", "instance_id", key, "error", err)
		return
	}
	if skipped {
		return
	}

	last := first
	if err := d.assistant.HandlePullRequest(ctx, actx, last); err != nil {
		d.logger.Error("failed to handle pull_request event", "instance_id", key, "error", err)
	}

	for !last.Closed() {
		select {
		case ev := <-act.events:
			switch ev.Kind {
			case model.EventPullRequest:
				last = ev.PullRequest
				if err := d.assistant.HandlePullRequest(ctx, actx, last); err != nil {
					d.logger.Error("failed to handle pull_request event", "instance_id", key, "error", err)
				}
			case model.EventIssueComment:
				if err := d.assistant.HandleComment(ctx, actx, ev.Comment); err != nil {
					d.logger.Error("failed to handle issue_comment event", "instance_id", key, "error", err)
				}
			}
		case <-d.quit:
			return
		}
	}

	if err := d.assistant.Finalize(ctx, actx, last); err != nil {
		d.logger.Error("failed to finalize instance", "instance_id", key, "error", err)
	}
}

func (d *Dispatcher) remove(key string) {
	d.mu.Lock()
	delete(d.actors, key)
	d.mu.Unlock()
}

// Len returns the number of live actors.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actors)
}

// Shutdown stops accepting events, terminates all actors, and waits for
// them and any in-flight review sub-processes to finish.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.quit)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.assistant.Wait()
}
