package config

import (
	"path/filepath"
	"strings"
)

// RepoFeatures gates which comment sections are rendered for a repository.
// The tables below are static: the core never mutates them.
type RepoFeatures struct {
	// SupportMultipleFeatures controls whether the aggregated comment
	// renders section headers. Single-feature repos get a bare summary.
	SupportMultipleFeatures  bool
	SupportDeploymentSummary bool
	SupportDiffSummary       bool
	SupportPurpose           bool
	SupportCodeReview        bool
}

// UserFeatures gates which assistance features run for a user.
type UserFeatures struct {
	DiffSummaryEnabled          bool
	DiffSummaryBreakdownEnabled bool
	PurposeEnabled              bool
}

var repoFeatures = map[string]RepoFeatures{
	"vertesia/composableai": {SupportDiffSummary: true},
	"vertesia/demo-github":  {SupportDiffSummary: true},
	"vertesia/llumiverse":   {SupportDiffSummary: true},
	"vertesia/memory":       {SupportDiffSummary: true},
	"vertesia/studio": {
		SupportMultipleFeatures:  true,
		SupportDeploymentSummary: true,
		SupportDiffSummary:       true,
		SupportPurpose:           true,
		SupportCodeReview:        true,
	},
}

var userFeatures = map[string]UserFeatures{
	"antoine-regnier": {
		DiffSummaryEnabled:          true,
		DiffSummaryBreakdownEnabled: true,
		PurposeEnabled:              true,
	},
	"mincong-h": {
		DiffSummaryEnabled:          true,
		DiffSummaryBreakdownEnabled: true,
		PurposeEnabled:              true,
	},
}

// changeLogAuthors are the PR authors whose merged pull requests are recorded
// in the external change log.
var changeLogAuthors = map[string]bool{
	"mincong-h": true,
}

// GetRepoFeatures returns the feature set of a repository. Unknown
// repositories get the zero value, which disables every section.
func GetRepoFeatures(org, repo string) RepoFeatures {
	return repoFeatures[org+"/"+repo]
}

// GetUserFlags returns the per-user feature flags for the given repository,
// or nil when assistance is disabled for the repository or the user.
func GetUserFlags(repoFullName, userID string) *UserFeatures {
	if _, ok := repoFeatures[repoFullName]; !ok {
		return nil
	}
	flags, ok := userFeatures[userID]
	if !ok {
		return nil
	}
	return &flags
}

// IsChangeLogEnabledForAuthor reports whether merged pull requests by the
// given author are recorded in the change log.
func IsChangeLogEnabledForAuthor(login string) bool {
	return changeLogAuthors[login]
}

// SupportedReviewExtensions is the fixed set of file extensions the code
// review handles, in display order for the limitation notice.
var SupportedReviewExtensions = []string{".ts", ".tsx"}

// IsCodeReviewEnabledForFile reports whether line-level review is supported
// for the given file path, based on its extension.
func IsCodeReviewEnabledForFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedReviewExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// GuidelineCandidates are the candidate paths of the repository guideline
// document, tried in order.
var GuidelineCandidates = []string{"VERTESIA.md", ".github/VERTESIA.md"}

const (
	// ExcludedBaseBranch carries too many changes per pull request for any
	// of the assistance features to be useful.
	ExcludedBaseBranch = "preview"

	// AutomatedBranchPrefix marks head branches opened by dependency-update
	// automation. Those PRs are skipped entirely.
	AutomatedBranchPrefix = "renovate/"

	// ReviewTriggerPhrase starts a code review when it appears in an issue
	// comment, case-insensitively.
	ReviewTriggerPhrase = "vertesia, please review"

	// AssistantLoginPrefix identifies comments authored by the assistant (or
	// its sibling bots) so they never re-trigger a review.
	AssistantLoginPrefix = "vertesia"

	// PreviewBotLogin is the deployment bot whose comments carry the preview
	// URL table.
	PreviewBotLogin = "vercel[bot]"
)
