package model

// FileStatusRemoved is the GitHub changed-file status of a deleted file.
// Removed files have no right-side lines to comment on.
const FileStatusRemoved = "removed"

// ChangedFile is one file of a pull request's diff, as listed by GitHub.
type ChangedFile struct {
	Filename string
	Patch    string
	Status   string // "added", "modified", "removed", "renamed", ...
}

// ReviewComment is a generated line-level review comment. Applicable is
// computed locally, never supplied by the generator: a comment is applicable
// only when its primary line falls inside a diff hunk on the stated side,
// because GitHub rejects review comments on out-of-diff positions.
type ReviewComment struct {
	FilePath   string
	Body       string
	Line       int
	Side       string // "LEFT" or "RIGHT"; empty means "RIGHT"
	StartLine  int    // non-zero for multi-line comments
	StartSide  string
	Applicable bool
}

// AnchorLine returns the line the applicability check is performed on: the
// start line for range comments, the primary line otherwise.
func (c ReviewComment) AnchorLine() (line int, side string) {
	if c.StartLine > 0 {
		return c.StartLine, c.StartSide
	}
	return c.Line, c.Side
}
