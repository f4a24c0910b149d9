package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

var testInstanceID = model.InstanceID{Org: "vertesia", Repo: "studio", Number: 42}

func TestReviewRunner_ReviewsSupportedFilesOnly(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "src/a.ts", Patch: "@@ -1,3 +1,5 @@", Status: "modified"},
		{Filename: "main.go", Patch: "@@ -1,3 +1,5 @@", Status: "modified"},
		{Filename: "src/gone.ts", Patch: "@@ -1,3 +0,0 @@", Status: "removed"},
	}
	content := newFakeContent()
	content.commentsByFile["src/a.ts"] = []model.ReviewComment{
		{FilePath: "src/a.ts", Body: "unused import", Line: 3, Side: "RIGHT"},
	}
	content.commentsByFile["main.go"] = []model.ReviewComment{
		{FilePath: "main.go", Body: "should never be requested", Line: 2},
	}

	runner := NewReviewRunner(github, content, discardLogger())
	url, err := runner.Run(context.Background(), testInstanceID, "fix crash")

	require.NoError(t, err)
	assert.NotEmpty(t, url)
	require.Len(t, github.reviews, 1)
	require.Len(t, github.reviews[0].Comments, 1)
	assert.Equal(t, "src/a.ts", github.reviews[0].Comments[0].FilePath)
	assert.Empty(t, github.reviews[0].Body)
}

func TestReviewRunner_DropsCommentsOutsideDiff(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "src/a.ts", Patch: "@@ -10,4 +10,6 @@", Status: "modified"},
	}
	content := newFakeContent()
	content.commentsByFile["src/a.ts"] = []model.ReviewComment{
		{FilePath: "src/a.ts", Body: "in range", Line: 12, Side: "RIGHT"},
		{FilePath: "src/a.ts", Body: "trailing context line", Line: 16, Side: "RIGHT"},
		{FilePath: "src/a.ts", Body: "out of range", Line: 40, Side: "RIGHT"},
		{FilePath: "src/a.ts", Body: "left side out of range", Line: 15, Side: "LEFT"},
	}

	runner := NewReviewRunner(github, content, discardLogger())
	_, err := runner.Run(context.Background(), testInstanceID, "")

	require.NoError(t, err)
	require.Len(t, github.reviews, 1)
	bodies := make([]string, 0, len(github.reviews[0].Comments))
	for _, c := range github.reviews[0].Comments {
		bodies = append(bodies, c.Body)
	}
	assert.Equal(t, []string{"in range", "trailing context line"}, bodies)
}

func TestReviewRunner_RangeCommentsValidateOnStartLine(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "src/a.ts", Patch: "@@ -10,4 +10,6 @@", Status: "modified"},
	}
	content := newFakeContent()
	content.commentsByFile["src/a.ts"] = []model.ReviewComment{
		{FilePath: "src/a.ts", Body: "range ok", Line: 40, Side: "RIGHT", StartLine: 11, StartSide: "RIGHT"},
		{FilePath: "src/a.ts", Body: "range bad", Line: 12, Side: "RIGHT", StartLine: 2, StartSide: "RIGHT"},
	}

	runner := NewReviewRunner(github, content, discardLogger())
	_, err := runner.Run(context.Background(), testInstanceID, "")

	require.NoError(t, err)
	require.Len(t, github.reviews, 1)
	require.Len(t, github.reviews[0].Comments, 1)
	assert.Equal(t, "range ok", github.reviews[0].Comments[0].Body)
}

func TestReviewRunner_NoCommentsExplainsLimitation(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "README.md", Patch: "@@ -1,1 +1,2 @@", Status: "modified"},
	}

	runner := NewReviewRunner(github, newFakeContent(), discardLogger())
	_, err := runner.Run(context.Background(), testInstanceID, "")

	require.NoError(t, err)
	require.Len(t, github.reviews, 1)
	assert.Contains(t, github.reviews[0].Body, "only supports the following file extensions")
	assert.Contains(t, github.reviews[0].Body, "`.ts`, `.tsx`")
	assert.Empty(t, github.reviews[0].Comments)
}

func TestReviewRunner_SubmissionFailureFallsBack(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "src/a.ts", Patch: "@@ -1,3 +1,5 @@", Status: "modified"},
	}
	github.reviewErrs = []error{errors.New("422 unprocessable")}
	content := newFakeContent()
	content.commentsByFile["src/a.ts"] = []model.ReviewComment{
		{FilePath: "src/a.ts", Body: "x", Line: 2, Side: "RIGHT"},
	}

	runner := NewReviewRunner(github, content, discardLogger())
	url, err := runner.Run(context.Background(), testInstanceID, "")

	require.NoError(t, err)
	assert.NotEmpty(t, url)
	require.Len(t, github.reviews, 1)
	assert.Contains(t, github.reviews[0].Body, "Failed to create a code review")
	assert.Empty(t, github.reviews[0].Comments)
}

func TestReviewRunner_FallbackFailurePropagates(t *testing.T) {
	github := newFakeGitHub()
	github.files = []model.ChangedFile{
		{Filename: "src/a.ts", Patch: "@@ -1,3 +1,5 @@", Status: "modified"},
	}
	github.reviewErrs = []error{errors.New("boom"), errors.New("boom again")}

	runner := NewReviewRunner(github, newFakeContent(), discardLogger())
	_, err := runner.Run(context.Background(), testInstanceID, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "submit fallback review")
}
