package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/vertesia/github-assistant/internal/domain/model"
	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// fakeGateStore is an in-memory GateStore.
type fakeGateStore struct {
	mu        sync.Mutex
	decisions map[string]bool
	readErr   error
	writeErr  error
}

func newFakeGateStore() *fakeGateStore {
	return &fakeGateStore{decisions: make(map[string]bool)}
}

func (s *fakeGateStore) key(instanceID, gate string) string {
	return instanceID + "|" + gate
}

func (s *fakeGateStore) RecordedDecision(_ context.Context, instanceID, gate string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return false, false, s.readErr
	}
	enabled, found := s.decisions[s.key(instanceID, gate)]
	return enabled, found, nil
}

func (s *fakeGateStore) RecordDecision(_ context.Context, instanceID, gate string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	key := s.key(instanceID, gate)
	if _, found := s.decisions[key]; !found {
		s.decisions[key] = enabled
	}
	return nil
}

// fakeInstanceStore is an in-memory InstanceStore.
type fakeInstanceStore struct {
	mu          sync.Mutex
	records     map[string]driven.InstanceRecord
	upsertCalls int
}

func newFakeInstanceStore() *fakeInstanceStore {
	return &fakeInstanceStore{records: make(map[string]driven.InstanceRecord)}
}

func (s *fakeInstanceStore) Upsert(_ context.Context, rec driven.InstanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if existing, ok := s.records[rec.ID]; ok {
		rec.CommentID = existing.CommentID
		rec.CreatedAt = existing.CreatedAt
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *fakeInstanceStore) Get(_ context.Context, id string) (*driven.InstanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *fakeInstanceStore) SetCommentID(_ context.Context, id string, commentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("instance %q not found", id)
	}
	if rec.CommentID != 0 && rec.CommentID != commentID {
		return fmt.Errorf("comment id already set for %q", id)
	}
	rec.CommentID = commentID
	s.records[id] = rec
	return nil
}

func (s *fakeInstanceStore) SetStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("instance %q not found", id)
	}
	rec.Status = status
	s.records[id] = rec
	return nil
}

// fakeReviewProcessStore is an in-memory ReviewProcessStore.
type fakeReviewProcessStore struct {
	mu       sync.Mutex
	live     map[string]bool
	finished []string
}

func newFakeReviewProcessStore() *fakeReviewProcessStore {
	return &fakeReviewProcessStore{live: make(map[string]bool)}
}

func (s *fakeReviewProcessStore) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live[id] {
		return false, nil
	}
	s.live[id] = true
	return true, nil
}

func (s *fakeReviewProcessStore) Finish(_ context.Context, id, htmlURL string, failed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live[id] {
		return fmt.Errorf("review process %q not live", id)
	}
	s.live[id] = false
	s.finished = append(s.finished, id)
	return nil
}

// upsertCall records one UpsertComment invocation.
type upsertCall struct {
	Body      string
	CommentID int64
}

// reviewCall records one SubmitReview invocation.
type reviewCall struct {
	Body     string
	Comments []model.ReviewComment
}

// fakeGitHub is an in-memory GitHubClient.
type fakeGitHub struct {
	mu sync.Mutex

	issues       map[string]model.GithubIssue
	issueFetches int
	guideline    string
	guidelineErr error
	diff         string
	files        []model.ChangedFile

	upserts       []upsertCall
	nextCommentID int64

	reviews    []reviewCall
	reviewURL  string
	reviewErrs []error // popped per call; nil means success
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		issues:        make(map[string]model.GithubIssue),
		nextCommentID: 9001,
		reviewURL:     "https://github.com/vertesia/studio/pull/42#pullrequestreview-1",
	}
}

func (g *fakeGitHub) FetchIssue(_ context.Context, ref model.GithubIssueRef) (model.GithubIssue, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issueFetches++
	issue, ok := g.issues[ref.HTMLURL()]
	if !ok {
		return model.GithubIssue{}, fmt.Errorf("issue %s not found", ref.HTMLURL())
	}
	return issue, nil
}

func (g *fakeGitHub) FetchGuideline(_ context.Context, _, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.guidelineErr != nil {
		return "", g.guidelineErr
	}
	return g.guideline, nil
}

func (g *fakeGitHub) FetchDiff(_ context.Context, _, _ string, _ int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.diff, nil
}

func (g *fakeGitHub) ListChangedFiles(_ context.Context, _, _ string, _ int) ([]model.ChangedFile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.files, nil
}

func (g *fakeGitHub) UpsertComment(_ context.Context, _, _ string, _ int, body string, commentID int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.upserts = append(g.upserts, upsertCall{Body: body, CommentID: commentID})
	if commentID != 0 {
		return commentID, nil
	}
	id := g.nextCommentID
	g.nextCommentID++
	return id, nil
}

func (g *fakeGitHub) SubmitReview(_ context.Context, _, _ string, _ int, review driven.ReviewSubmission) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	if len(g.reviewErrs) > 0 {
		err = g.reviewErrs[0]
		g.reviewErrs = g.reviewErrs[1:]
	}
	if err != nil {
		return "", err
	}
	g.reviews = append(g.reviews, reviewCall{Body: review.Body, Comments: review.Comments})
	return g.reviewURL, nil
}

// fakeContent is an in-memory ContentClient.
type fakeContent struct {
	mu sync.Mutex

	summary    driven.DiffSummaryResult
	summaryErr error

	purpose    driven.PurposeResult
	purposeErr error

	commentsByFile map[string][]model.ReviewComment
	lineErr        error

	changeEntries []driven.ChangeLogEntry
	changeErr     error

	summaryCalls int
	purposeCalls int
}

func newFakeContent() *fakeContent {
	return &fakeContent{commentsByFile: make(map[string][]model.ReviewComment)}
}

func (c *fakeContent) GenerateDiffSummary(_ context.Context, _ driven.DiffSummaryRequest) (driven.DiffSummaryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaryCalls++
	if c.summaryErr != nil {
		return driven.DiffSummaryResult{}, c.summaryErr
	}
	return c.summary, nil
}

func (c *fakeContent) GeneratePurpose(_ context.Context, _ string, _ []string) (driven.PurposeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purposeCalls++
	if c.purposeErr != nil {
		return driven.PurposeResult{}, c.purposeErr
	}
	return c.purpose, nil
}

func (c *fakeContent) GenerateLineComments(_ context.Context, req driven.LineCommentRequest) ([]model.ReviewComment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lineErr != nil {
		return nil, c.lineErr
	}
	return c.commentsByFile[req.FilePath], nil
}

func (c *fakeContent) AppendChangeLogEntry(_ context.Context, entry driven.ChangeLogEntry) (driven.ChangeLogReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.changeErr != nil {
		return driven.ChangeLogReceipt{}, c.changeErr
	}
	c.changeEntries = append(c.changeEntries, entry)
	return driven.ChangeLogReceipt{EntryID: "entry-1", EntryURL: "https://zeno-server-preview.api.vertesia.io/store/objects/entry-1"}, nil
}
