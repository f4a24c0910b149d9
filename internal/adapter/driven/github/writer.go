package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// UpsertComment creates the aggregated comment when commentID is zero, or
// edits the existing comment otherwise. It returns the comment ID so the
// caller can persist it after the first creation.
func (c *Client) UpsertComment(ctx context.Context, org, repo string, prNumber int, body string, commentID int64) (int64, error) {
	if commentID == 0 {
		created, _, err := c.gh.Issues.CreateComment(ctx, org, repo, prNumber, &gh.IssueComment{
			Body: gh.Ptr(body),
		})
		if err != nil {
			return 0, fmt.Errorf("creating comment on %s/%s#%d: %w", org, repo, prNumber, err)
		}
		return created.GetID(), nil
	}

	_, _, err := c.gh.Issues.EditComment(ctx, org, repo, commentID, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return 0, fmt.Errorf("updating comment %d on %s/%s#%d: %w", commentID, org, repo, prNumber, err)
	}
	return commentID, nil
}

// SubmitReview submits a pull request review with optional inline comments
// and returns its HTML URL. The review is submitted as a COMMENT event: the
// assistant never approves or requests changes on its own authority.
func (c *Client) SubmitReview(ctx context.Context, org, repo string, prNumber int, review driven.ReviewSubmission) (string, error) {
	var draftComments []*gh.DraftReviewComment
	for _, rc := range review.Comments {
		dc := &gh.DraftReviewComment{
			Path: gh.Ptr(rc.FilePath),
			Body: gh.Ptr(rc.Body),
			Line: gh.Ptr(rc.Line),
		}
		if rc.Side != "" {
			dc.Side = gh.Ptr(rc.Side)
		}
		if rc.StartLine > 0 {
			dc.StartLine = gh.Ptr(rc.StartLine)
			if rc.StartSide != "" {
				dc.StartSide = gh.Ptr(rc.StartSide)
			}
		}
		draftComments = append(draftComments, dc)
	}

	reviewReq := &gh.PullRequestReviewRequest{
		Event:    gh.Ptr("COMMENT"),
		Comments: draftComments,
	}
	if review.Body != "" {
		reviewReq.Body = gh.Ptr(review.Body)
	}

	created, _, err := c.gh.PullRequests.CreateReview(ctx, org, repo, prNumber, reviewReq)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == 422 {
			return "", fmt.Errorf("review rejected for %s/%s#%d, likely a comment outside the diff: %w", org, repo, prNumber, err)
		}
		return "", fmt.Errorf("submitting review for %s/%s#%d: %w", org, repo, prNumber, err)
	}

	return created.GetHTMLURL(), nil
}
