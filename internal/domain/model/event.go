package model

import "encoding/json"

// EventKind discriminates the tagged union of events the assistant accepts.
type EventKind string

const (
	// EventPullRequest is a pull_request webhook event (opened, synchronized,
	// edited, closed, ...).
	EventPullRequest EventKind = "pull_request"
	// EventIssueComment is an issue_comment webhook event on the PR thread.
	EventIssueComment EventKind = "issue_comment"
)

// PullRequestEvent carries the fields the assistant actually reads from a
// pull_request payload.
type PullRequestEvent struct {
	Action      string
	Org         string
	Repo        string
	Number      int
	Title       string
	Body        string
	Branch      string // head ref
	BaseBranch  string // base ref
	HeadSHA     string
	DiffURL     string
	HTMLURL     string
	AuthorLogin string
	State       string // "open" or "closed"
	Merged      bool
	UpdatedAt   string // ISO-8601, passed through to the change log
}

// ID returns the instance identity targeted by this event.
func (e *PullRequestEvent) ID() InstanceID {
	return InstanceID{Org: e.Org, Repo: e.Repo, Number: e.Number}
}

// Closed reports whether the pull request reached a terminal state.
func (e *PullRequestEvent) Closed() bool {
	return e.State == "closed" || e.Merged
}

// IssueCommentEvent carries the fields the assistant reads from an
// issue_comment payload on a pull request.
type IssueCommentEvent struct {
	Org         string
	Repo        string
	Number      int
	AuthorLogin string
	CommentBody string
}

// ID returns the instance identity targeted by this event.
func (e *IssueCommentEvent) ID() InstanceID {
	return InstanceID{Org: e.Org, Repo: e.Repo, Number: e.Number}
}

// Event is the tagged union delivered to an assistant instance. Exactly one
// of PullRequest and Comment is set, according to Kind. Raw retains the
// original payload for fields the core does not promote.
type Event struct {
	Kind        EventKind
	PullRequest *PullRequestEvent
	Comment     *IssueCommentEvent
	Raw         json.RawMessage
}

// ID returns the instance identity targeted by this event.
func (e Event) ID() InstanceID {
	if e.Kind == EventPullRequest && e.PullRequest != nil {
		return e.PullRequest.ID()
	}
	if e.Comment != nil {
		return e.Comment.ID()
	}
	return InstanceID{}
}
