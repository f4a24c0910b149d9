package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vertesia/github-assistant/internal/config"
	"github.com/vertesia/github-assistant/internal/domain/model"
	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// maxConcurrentFileReviews bounds the fan-out of per-file review calls.
const maxConcurrentFileReviews = 8

// ReviewRunner performs one code review of a pull request: it reviews every
// supported changed file concurrently, validates the generated comments
// against the diff, and submits a single review.
type ReviewRunner struct {
	github  driven.GitHubClient
	content driven.ContentClient
	logger  *slog.Logger
}

// NewReviewRunner creates a ReviewRunner.
func NewReviewRunner(github driven.GitHubClient, content driven.ContentClient, logger *slog.Logger) *ReviewRunner {
	return &ReviewRunner{github: github, content: content, logger: logger}
}

// Run reviews the pull request and returns the HTML URL of the submitted
// review. When the initial submission fails, a comment-free review
// explaining the failure is submitted instead; only a failure of that
// fallback is returned as an error.
func (r *ReviewRunner) Run(ctx context.Context, id model.InstanceID, purpose string) (string, error) {
	r.logger.Info("starting code review", "instance_id", id.String())

	files, err := r.github.ListChangedFiles(ctx, id.Org, id.Repo, id.Number)
	if err != nil {
		return "", fmt.Errorf("list changed files: %w", err)
	}

	var reviewable []model.ChangedFile
	for _, f := range files {
		if f.Status == model.FileStatusRemoved {
			continue
		}
		if !config.IsCodeReviewEnabledForFile(f.Filename) {
			continue
		}
		reviewable = append(reviewable, f)
	}

	commentsPerFile := make([][]model.ReviewComment, len(reviewable))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFileReviews)
	for i, f := range reviewable {
		g.Go(func() error {
			comments, err := r.content.GenerateLineComments(gctx, driven.LineCommentRequest{
				FilePath: f.Filename,
				Patch:    f.Patch,
				Purpose:  purpose,
			})
			if err != nil {
				return fmt.Errorf("review %s: %w", f.Filename, err)
			}
			commentsPerFile[i] = validateComments(comments, f.Patch, r.logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var comments []model.ReviewComment
	for _, fc := range commentsPerFile {
		comments = append(comments, fc...)
	}

	submission := driven.ReviewSubmission{Comments: comments}
	if len(comments) == 0 {
		submission.Body = extensionLimitationNotice()
	}

	htmlURL, err := r.github.SubmitReview(ctx, id.Org, id.Repo, id.Number, submission)
	if err == nil {
		r.logger.Info("code review submitted",
			"instance_id", id.String(),
			"comments", len(comments),
			"html_url", htmlURL,
		)
		return htmlURL, nil
	}

	r.logger.Error("failed to submit code review, posting a warning instead",
		"instance_id", id.String(),
		"error", err,
	)

	htmlURL, err = r.github.SubmitReview(ctx, id.Org, id.Repo, id.Number, driven.ReviewSubmission{
		Body: "Failed to create a code review. Please check the assistant execution for more details.",
	})
	if err != nil {
		return "", fmt.Errorf("submit fallback review: %w", err)
	}
	return htmlURL, nil
}

// validateComments marks each comment applicable when its anchor line falls
// inside a diff hunk and drops the rest. The hosting API rejects whole
// reviews over a single out-of-diff comment, so dropping is the safe choice;
// each drop is logged for operability.
func validateComments(comments []model.ReviewComment, patch string, logger *slog.Logger) []model.ReviewComment {
	hunks := model.ParseHunks(patch)

	var applicable []model.ReviewComment
	for _, c := range comments {
		line, side := c.AnchorLine()
		c.Applicable = hunks.IsLineValid(side, line)
		if !c.Applicable {
			logger.Warn("dropping review comment outside the diff",
				"file", c.FilePath,
				"line", line,
				"side", side,
			)
			continue
		}
		applicable = append(applicable, c)
	}
	return applicable
}

func extensionLimitationNotice() string {
	quoted := make([]string, len(config.SupportedReviewExtensions))
	for i, ext := range config.SupportedReviewExtensions {
		quoted[i] = "`" + ext + "`"
	}
	return "Currently, the code review only supports the following file extensions: " +
		strings.Join(quoted, ", ") + "."
}
