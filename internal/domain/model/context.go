// Package model defines the domain types of the pull-request assistant.
package model

import "fmt"

// GithubIssueRef is a value reference to a GitHub issue. Two refs with equal
// org, repo, and number are interchangeable; the canonical identity is the
// HTML URL, which callers use as a map key for deduplication.
type GithubIssueRef struct {
	Org    string
	Repo   string
	Number int
}

// HTMLURL returns the canonical issue URL used as deduplication key.
func (r GithubIssueRef) HTMLURL() string {
	return fmt.Sprintf("https://github.com/%s/%s/issues/%d", r.Org, r.Repo, r.Number)
}

// GithubIssue is a fetched GitHub issue with its descriptive content.
type GithubIssue struct {
	Org    string
	Repo   string
	Number int
	Title  string
	Body   string
}

// Ref returns the reference of this issue.
func (i GithubIssue) Ref() GithubIssueRef {
	return GithubIssueRef{Org: i.Org, Repo: i.Repo, Number: i.Number}
}

// DiffSummary is the generated summary of a pull request's code difference.
// It is replaced wholesale on every summarization call, never patched.
type DiffSummary struct {
	Summary   string `json:"summary"`
	Breakdown string `json:"breakdown,omitempty"`
}

// PullRequestContext is the mutable per-instance state of one pull request.
// It is created on the first event, mutated in place on every subsequent
// event, and discarded when the instance terminates.
type PullRequestContext struct {
	Org     string `json:"org"`
	Repo    string `json:"repo"`
	Number  int    `json:"number"`
	Branch  string `json:"branch"`
	DiffURL string `json:"diffUrl"`

	// CommentID is the aggregated comment posted by the assistant. Zero until
	// the first comment is created, then stable for the life of the PR.
	CommentID int64 `json:"commentId,omitempty"`

	// CommitSHA is the latest commit pushed to the pull request.
	CommitSHA string `json:"commitSha"`
	Title     string `json:"title"`
	Body      string `json:"body"`

	// RelatedIssues maps canonical issue URLs to fetched issues. Keying by
	// URL guarantees one entry per issue however often it is referenced.
	RelatedIssues map[string]GithubIssue `json:"relatedIssues,omitempty"`

	// Motivation explains why the pull request was created.
	Motivation string `json:"motivation,omitempty"`
	// Context describes the problem the pull request is solving.
	Context string `json:"context,omitempty"`
	// Clearness rates how clear motivation and context are, 1 to 5.
	// Zero means not yet rated.
	Clearness int `json:"clearness,omitempty"`
}

// ID returns the instance identity of this pull request.
func (pr *PullRequestContext) ID() InstanceID {
	return InstanceID{Org: pr.Org, Repo: pr.Repo, Number: pr.Number}
}

// Purpose concatenates the inferred motivation and context for use as the
// purpose input of the code review.
func (pr *PullRequestContext) Purpose() string {
	return pr.Motivation + "\n\n" + pr.Context
}

// ExecutionInfo describes where the assistant instance runs.
type ExecutionInfo struct {
	Namespace  string `json:"namespace"`
	Service    string `json:"service"`
	InstanceID string `json:"instanceId"`
	RunID      string `json:"runId"`
}

// AssistantContext aggregates everything the assistant knows about one pull
// request. All observable effects are derived from this context.
type AssistantContext struct {
	// Deployment is the spec of the development environment, nil when the
	// head branch does not map to one or the repo disabled the feature.
	Deployment *DeploymentSpec `json:"deployment,omitempty"`

	Execution   ExecutionInfo      `json:"execution"`
	PullRequest PullRequestContext `json:"pullRequest"`

	// Summary of the code difference, nil until generated.
	Summary *DiffSummary `json:"summary,omitempty"`

	// Guideline holds the repository's assistance guideline document, empty
	// when the repository does not carry one or loading failed.
	Guideline string `json:"guideline,omitempty"`
}
