package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vertesia/github-assistant/internal/config"
	"github.com/vertesia/github-assistant/internal/domain/model"
	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// previewURLPattern matches the "Visit Preview" link in the deployment
// bot's comment table.
var previewURLPattern = regexp.MustCompile(`\[Visit Preview\]\((https?://[^)]+)\)`)

// Assistant implements the per-pull-request assistance procedures. Each
// instance's context is owned by exactly one dispatcher actor, so the
// methods mutate the passed context without locking.
type Assistant struct {
	github    driven.GitHubClient
	content   driven.ContentClient
	instances driven.InstanceStore
	procs     driven.ReviewProcessStore
	gates     *BehaviorGates
	reviews   *ReviewRunner
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewAssistant creates an Assistant.
func NewAssistant(
	github driven.GitHubClient,
	content driven.ContentClient,
	instances driven.InstanceStore,
	procs driven.ReviewProcessStore,
	gates *BehaviorGates,
	reviews *ReviewRunner,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		github:    github,
		content:   content,
		instances: instances,
		procs:     procs,
		gates:     gates,
		reviews:   reviews,
		logger:    logger,
	}
}

// Wait blocks until all in-flight review sub-processes have finished. Used
// during shutdown.
func (a *Assistant) Wait() {
	a.wg.Wait()
}

// Bootstrap evaluates the skip conditions and builds the initial context for
// an instance. It returns skipped=true, with a nil context and no side
// effects on external systems, when assistance is disabled for this pull
// request. A persisted record from an earlier run of the same instance is
// loaded first: a redelivered event keeps the recorded comment identity, so
// the instance goes on updating the one aggregated comment instead of
// creating a second thread.
func (a *Assistant) Bootstrap(ctx context.Context, ev *model.PullRequestEvent) (*model.AssistantContext, bool, error) {
	id := ev.ID()

	prior, err := a.instances.Get(ctx, id.String())
	if err != nil {
		return nil, false, fmt.Errorf("load instance record: %w", err)
	}
	if prior != nil && prior.Status == driven.InstanceStatusSkipped {
		a.logger.Info("instance was already skipped", "instance_id", id.String())
		return nil, true, nil
	}

	if reason := skipReason(ev); reason != "" {
		a.logger.Info("skipping pull request",
			"instance_id", id.String(),
			"reason", reason,
		)
		err := a.instances.Upsert(ctx, driven.InstanceRecord{
			ID:     id.String(),
			Org:    id.Org,
			Repo:   id.Repo,
			Number: id.Number,
			Status: driven.InstanceStatusSkipped,
		})
		if err != nil {
			return nil, true, fmt.Errorf("record skipped instance: %w", err)
		}
		return nil, true, nil
	}

	runID := uuid.NewString()
	actx := &model.AssistantContext{
		Execution: model.ExecutionInfo{
			Namespace:  "default",
			Service:    "vertesia_github-assistant",
			InstanceID: id.String(),
			RunID:      runID,
		},
		PullRequest: model.PullRequestContext{
			Org:       id.Org,
			Repo:      id.Repo,
			Number:    id.Number,
			Branch:    ev.Branch,
			DiffURL:   ev.DiffURL,
			CommitSHA: ev.HeadSHA,
			Title:     ev.Title,
			Body:      ev.Body,
		},
	}

	if config.GetRepoFeatures(id.Org, id.Repo).SupportDeploymentSummary {
		actx.Deployment = ResolveDeploymentSpec(ev.Branch)
	}

	if prior != nil {
		actx.PullRequest.CommentID = prior.CommentID
	}

	err = a.instances.Upsert(ctx, driven.InstanceRecord{
		ID:     id.String(),
		Org:    id.Org,
		Repo:   id.Repo,
		Number: id.Number,
		Status: driven.InstanceStatusActive,
		RunID:  runID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("record instance: %w", err)
	}

	a.logger.Info("instance started", "instance_id", id.String(), "run_id", runID)
	return actx, false, nil
}

// skipReason returns a human-readable reason when assistance must not run
// for this pull request, or "" when it may.
func skipReason(ev *model.PullRequestEvent) string {
	id := ev.ID()
	if config.GetUserFlags(id.RepoFullName(), ev.AuthorLogin) == nil {
		return "assistance is disabled for this user"
	}
	if ev.BaseBranch == config.ExcludedBaseBranch {
		// The preview branch aggregates many already-reviewed commits.
		return "assistance is disabled for the preview base branch"
	}
	if strings.HasPrefix(ev.Branch, config.AutomatedBranchPrefix) {
		return "assistance is disabled for dependency-update branches"
	}
	return ""
}

// HandlePullRequest re-runs the assistance procedure for a PR update. Closed
// or merged events are ignored here; the dispatcher routes them to Finalize.
func (a *Assistant) HandlePullRequest(ctx context.Context, actx *model.AssistantContext, ev *model.PullRequestEvent) error {
	if ev.Action == "closed" || ev.Merged {
		return nil
	}

	id := actx.PullRequest.ID()
	a.logger.Info("handling pull_request event",
		"instance_id", id.String(),
		"action", ev.Action,
	)

	flags := config.GetUserFlags(id.RepoFullName(), ev.AuthorLogin)
	if flags == nil {
		return nil
	}

	useGuideline, err := a.gates.Enabled(ctx, id.String(), GateGuidelineDoc)
	if err != nil {
		return err
	}
	if useGuideline {
		guideline, err := a.github.FetchGuideline(ctx, id.Org, id.Repo, ev.Branch)
		if err != nil {
			// The guideline is best-effort context, never a blocker.
			a.logger.Warn("failed to load guideline document",
				"instance_id", id.String(),
				"error", err,
			)
		} else {
			actx.Guideline = guideline
		}
	}

	if flags.DiffSummaryEnabled {
		if err := a.generateSummary(ctx, actx, flags.DiffSummaryBreakdownEnabled); err != nil {
			return err
		}
	} else {
		a.logger.Info("diff summary is disabled for this user", "instance_id", id.String())
	}

	if flags.PurposeEnabled {
		if err := a.loadIssuesAndPurpose(ctx, actx); err != nil {
			return err
		}
	}

	if err := a.upsertComment(ctx, actx); err != nil {
		return err
	}

	actx.PullRequest.CommitSHA = ev.HeadSHA
	actx.PullRequest.Title = ev.Title
	actx.PullRequest.Body = ev.Body
	return nil
}

func (a *Assistant) generateSummary(ctx context.Context, actx *model.AssistantContext, breakdown bool) error {
	id := actx.PullRequest.ID()

	diff, err := a.github.FetchDiff(ctx, id.Org, id.Repo, id.Number)
	if err != nil {
		return err
	}

	result, err := a.content.GenerateDiffSummary(ctx, driven.DiffSummaryRequest{
		Diff:             diff,
		Guideline:        actx.Guideline,
		BreakdownEnabled: breakdown,
	})
	if err != nil {
		return err
	}

	actx.Summary = &model.DiffSummary{
		Summary:   result.Summary,
		Breakdown: formatBreakdown(result.Changes),
	}
	a.logger.Info("diff summary generated", "instance_id", id.String())
	return nil
}

// formatBreakdown renders the per-path changes as a markdown list.
func formatBreakdown(changes []driven.DiffSummaryChange) string {
	if len(changes) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ch := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "* `%s`: %s", ch.PathOrGlob, ch.Description)
	}
	return b.String()
}

// loadIssuesAndPurpose refreshes the related issues and re-infers the
// purpose. Fetching is skipped when every referenced issue is already
// loaded, so repeated PR-update events stay cheap.
func (a *Assistant) loadIssuesAndPurpose(ctx context.Context, actx *model.AssistantContext) error {
	id := actx.PullRequest.ID()
	refs := ParseIssueRefs(id.Org, id.Repo, actx.PullRequest.Body, actx.PullRequest.Branch)
	a.logger.Info("found issue references",
		"instance_id", id.String(),
		"count", len(refs),
	)

	alreadyLoaded := true
	for _, ref := range refs {
		if _, ok := actx.PullRequest.RelatedIssues[ref.HTMLURL()]; !ok {
			alreadyLoaded = false
			break
		}
	}

	if !alreadyLoaded {
		issues := make([]model.GithubIssue, len(refs))
		g, gctx := errgroup.WithContext(ctx)
		for i, ref := range refs {
			g.Go(func() error {
				issue, err := a.github.FetchIssue(gctx, ref)
				if err != nil {
					return err
				}
				issues[i] = issue
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("load issues: %w", err)
		}

		related := make(map[string]model.GithubIssue, len(issues))
		for _, issue := range issues {
			related[issue.Ref().HTMLURL()] = issue
		}
		actx.PullRequest.RelatedIssues = related
	}

	issueDescriptions := make([]string, 0, len(actx.PullRequest.RelatedIssues))
	for _, issue := range actx.PullRequest.RelatedIssues {
		issueDescriptions = append(issueDescriptions, issue.Title+"\n\n"+issue.Body)
	}

	result, err := a.content.GeneratePurpose(ctx,
		actx.PullRequest.Title+"\n\n"+actx.PullRequest.Body,
		issueDescriptions,
	)
	if err != nil {
		return err
	}

	actx.PullRequest.Motivation = result.Motivation
	actx.PullRequest.Context = result.Context
	actx.PullRequest.Clearness = result.Clearness
	return nil
}

// upsertComment renders the aggregated comment and creates or updates it.
// The comment ID captured on first creation is persisted and never
// overwritten afterward.
func (a *Assistant) upsertComment(ctx context.Context, actx *model.AssistantContext) error {
	id := actx.PullRequest.ID()
	body := ComposeComment(actx)

	commentID, err := a.github.UpsertComment(ctx, id.Org, id.Repo, id.Number, body, actx.PullRequest.CommentID)
	if err != nil {
		return fmt.Errorf("upsert comment: %w", err)
	}

	if actx.PullRequest.CommentID == 0 {
		actx.PullRequest.CommentID = commentID
		if err := a.instances.SetCommentID(ctx, id.String(), commentID); err != nil {
			return fmt.Errorf("persist comment id: %w", err)
		}
	}
	return nil
}

// HandleComment routes an issue_comment event: the deployment bot's comment
// merges the preview URL into the deployment spec, a review-trigger phrase
// starts the code-review sub-process, anything else is ignored.
func (a *Assistant) HandleComment(ctx context.Context, actx *model.AssistantContext, ev *model.IssueCommentEvent) error {
	id := actx.PullRequest.ID()
	a.logger.Info("handling issue_comment event",
		"instance_id", id.String(),
		"author", ev.AuthorLogin,
	)

	if ev.AuthorLogin == config.PreviewBotLogin &&
		(actx.Deployment == nil || actx.Deployment.Vercel == nil) {
		return a.mergePreviewURL(ctx, actx, ev.CommentBody)
	}

	if !strings.HasPrefix(ev.AuthorLogin, config.AssistantLoginPrefix) &&
		strings.Contains(strings.ToLower(ev.CommentBody), config.ReviewTriggerPhrase) {
		return a.StartReview(ctx, actx)
	}

	a.logger.Info("ignoring comment event",
		"instance_id", id.String(),
		"author", ev.AuthorLogin,
	)
	return nil
}

// mergePreviewURL extracts the preview URL from the deployment bot's comment
// and re-renders the aggregated comment with it.
func (a *Assistant) mergePreviewURL(ctx context.Context, actx *model.AssistantContext, commentBody string) error {
	id := actx.PullRequest.ID()

	if config.GetRepoFeatures(id.Org, id.Repo).SupportDeploymentSummary {
		url := ExtractPreviewURL(commentBody)
		if url == "" {
			a.logger.Warn("no preview url found in deployment bot comment",
				"instance_id", id.String(),
			)
			return nil
		}
		a.logger.Info("extracted preview url", "instance_id", id.String(), "url", url)
		if actx.Deployment != nil {
			actx.Deployment.Vercel = &model.VercelDeployment{StudioUIURL: url}
		}
	}

	return a.upsertComment(ctx, actx)
}

// StartReview claims the review-process key and launches the code review in
// the background. A second trigger while a review is live is rejected by
// the claim and reported as a no-op.
func (a *Assistant) StartReview(ctx context.Context, actx *model.AssistantContext) error {
	id := actx.PullRequest.ID()
	reviewID := id.ReviewID()

	claimed, err := a.procs.Claim(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("claim review process: %w", err)
	}
	if !claimed {
		a.logger.Info("code review already in flight", "review_id", reviewID)
		return nil
	}

	purpose := actx.PullRequest.Purpose()

	// The review is an independent process: it must not block this
	// instance, and it survives cancellation of the triggering event.
	bgCtx := context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		htmlURL, runErr := a.reviews.Run(bgCtx, id, purpose)
		if runErr != nil {
			a.logger.Error("code review failed", "review_id", reviewID, "error", runErr)
		}
		if err := a.procs.Finish(bgCtx, reviewID, htmlURL, runErr != nil); err != nil {
			a.logger.Error("failed to finish review process", "review_id", reviewID, "error", err)
		}
	}()

	a.logger.Info("code review started", "review_id", reviewID)
	return nil
}

// Finalize runs the terminal procedure when the pull request is closed or
// merged. A merged PR by an enabled author is recorded in the change log,
// behind its behavior gate; failures there are logged, never fatal.
func (a *Assistant) Finalize(ctx context.Context, actx *model.AssistantContext, ev *model.PullRequestEvent) error {
	id := actx.PullRequest.ID()

	status := driven.InstanceStatusClosed
	if ev.Merged {
		status = driven.InstanceStatusMerged
	}

	if ev.Merged && config.IsChangeLogEnabledForAuthor(ev.AuthorLogin) {
		useChangeLog, err := a.gates.Enabled(ctx, id.String(), GateChangeLog)
		if err != nil {
			return err
		}
		if useChangeLog {
			a.appendChangeLog(ctx, actx, ev)
		}
	}

	if err := a.instances.SetStatus(ctx, id.String(), status); err != nil {
		return fmt.Errorf("record terminal status: %w", err)
	}

	a.logger.Info("instance finished", "instance_id", id.String(), "status", status)
	return nil
}

func (a *Assistant) appendChangeLog(ctx context.Context, actx *model.AssistantContext, ev *model.PullRequestEvent) {
	id := actx.PullRequest.ID()

	description := strings.TrimSpace(actx.PullRequest.Motivation + "\n\n" + actx.PullRequest.Context)

	receipt, err := a.content.AppendChangeLogEntry(ctx, driven.ChangeLogEntry{
		Org:          id.Org,
		Repo:         id.Repo,
		RepoFullName: id.RepoFullName(),
		Number:       id.Number,
		HTMLURL:      ev.HTMLURL,
		CommitSHA:    ev.HeadSHA,
		CommitDate:   ev.UpdatedAt,
		AuthorLogin:  ev.AuthorLogin,
		Title:        ev.Title,
		Description:  description,
	})
	if err != nil {
		a.logger.Error("failed to create change entry",
			"instance_id", id.String(),
			"error", err,
		)
		return
	}

	a.logger.Info("change entry created",
		"instance_id", id.String(),
		"entry_id", receipt.EntryID,
		"entry_url", receipt.EntryURL,
	)
}

// ExtractPreviewURL finds the preview URL in the deployment bot's comment.
// The bot posts a markdown table with one row per deployed project; the row
// named "unified" is the Studio UI. Returns "" when no URL is present.
func ExtractPreviewURL(content string) string {
	for _, row := range strings.Split(content, "\n") {
		if !strings.Contains(row, "| **unified**") {
			continue
		}
		if m := previewURLPattern.FindStringSubmatch(row); m != nil {
			return m[1]
		}
	}
	return ""
}
