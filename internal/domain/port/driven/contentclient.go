package driven

import (
	"context"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// DiffSummaryRequest asks the content-generation service to summarize a
// unified diff. Guideline is optional repository-specific context.
type DiffSummaryRequest struct {
	Diff             string
	Guideline        string
	BreakdownEnabled bool
}

// DiffSummaryChange is one per-path entry of a summary breakdown.
type DiffSummaryChange struct {
	PathOrGlob  string
	Description string
}

// DiffSummaryResult is the generated summary, replaced wholesale on each call.
type DiffSummaryResult struct {
	Summary string
	Changes []DiffSummaryChange
}

// PurposeResult is the inferred purpose of a pull request.
type PurposeResult struct {
	Motivation string
	Context    string
	Clearness  int // 1-5
}

// LineCommentRequest asks for line-level review comments on one file patch.
type LineCommentRequest struct {
	FilePath string
	Patch    string
	Purpose  string
}

// ChangeLogEntry records one merged pull request in the external content
// store.
type ChangeLogEntry struct {
	Org          string
	Repo         string
	RepoFullName string
	Number       int
	HTMLURL      string
	CommitSHA    string
	CommitDate   string // ISO-8601
	AuthorLogin  string
	Title        string
	Description  string
	Tags         []string
}

// ChangeLogReceipt identifies the stored change-log entry.
type ChangeLogReceipt struct {
	EntryID  string
	EntryURL string
}

// ContentClient defines the driven port for the content-generation service
// and its content store. The service is opaque: no inference happens on this
// side of the boundary.
type ContentClient interface {
	GenerateDiffSummary(ctx context.Context, req DiffSummaryRequest) (DiffSummaryResult, error)
	GeneratePurpose(ctx context.Context, prDescription string, issueDescriptions []string) (PurposeResult, error)
	GenerateLineComments(ctx context.Context, req LineCommentRequest) ([]model.ReviewComment, error)
	AppendChangeLogEntry(ctx context.Context, entry ChangeLogEntry) (ChangeLogReceipt, error)
}
