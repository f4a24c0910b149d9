// Package driven defines the port interfaces for external collaborators.
// Every method crossing a process boundary takes a context and is expected
// to be independently retryable by its adapter.
package driven

import (
	"context"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// ReviewSubmission is one pull request review to submit: an optional body
// plus zero or more line comments.
type ReviewSubmission struct {
	Body     string
	Comments []model.ReviewComment
}

// GitHubClient defines the driven port for the Git-hosting REST API.
type GitHubClient interface {
	// FetchIssue retrieves the title and body of an issue.
	FetchIssue(ctx context.Context, ref model.GithubIssueRef) (model.GithubIssue, error)

	// FetchGuideline loads the repository's assistance guideline document at
	// the given ref, trying a fixed ordered list of candidate filenames and
	// returning the first hit. Returns an error when none exists.
	FetchGuideline(ctx context.Context, org, repo, ref string) (string, error)

	// FetchDiff returns the raw unified diff of a pull request.
	FetchDiff(ctx context.Context, org, repo string, prNumber int) (string, error)

	// ListChangedFiles lists the files changed by a pull request, including
	// each file's patch text and status.
	ListChangedFiles(ctx context.Context, org, repo string, prNumber int) ([]model.ChangedFile, error)

	// UpsertComment creates the aggregated PR comment when commentID is zero,
	// or updates the existing comment in place otherwise. It returns the ID
	// of the created or updated comment.
	UpsertComment(ctx context.Context, org, repo string, prNumber int, body string, commentID int64) (int64, error)

	// SubmitReview submits a review and returns its HTML URL.
	SubmitReview(ctx context.Context, org, repo string, prNumber int, review ReviewSubmission) (string, error)
}
