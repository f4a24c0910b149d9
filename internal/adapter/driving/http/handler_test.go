package httphandler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// fakeDispatcher records dispatched events.
type fakeDispatcher struct {
	events []model.Event
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev model.Event) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, ev)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeDispatcher) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dispatcher := &fakeDispatcher{}
	srv := httptest.NewServer(NewServeMux(NewHandler(dispatcher, logger), logger))
	t.Cleanup(srv.Close)
	return srv, dispatcher
}

func postEvent(t *testing.T, srv *httptest.Server, event, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/events", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const pullRequestBody = `{
	"action": "opened",
	"repository": {
		"name": "studio",
		"owner": {"login": "vertesia"}
	},
	"pull_request": {
		"number": 42,
		"title": "Fix crash on empty diff",
		"body": "Fixes #7.",
		"state": "open",
		"merged": false,
		"diff_url": "https://github.com/vertesia/studio/pull/42.diff",
		"html_url": "https://github.com/vertesia/studio/pull/42",
		"updated_at": "2026-08-29T10:00:00Z",
		"user": {"login": "mincong-h"},
		"head": {"ref": "fix-42", "sha": "abc123"},
		"base": {"ref": "main"}
	}
}`

func TestReceiveEvent_PullRequest(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	resp := postEvent(t, srv, "pull_request", pullRequestBody)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, dispatcher.events, 1)

	ev := dispatcher.events[0]
	assert.Equal(t, model.EventPullRequest, ev.Kind)
	require.NotNil(t, ev.PullRequest)
	assert.Equal(t, "opened", ev.PullRequest.Action)
	assert.Equal(t, "vertesia", ev.PullRequest.Org)
	assert.Equal(t, "studio", ev.PullRequest.Repo)
	assert.Equal(t, 42, ev.PullRequest.Number)
	assert.Equal(t, "fix-42", ev.PullRequest.Branch)
	assert.Equal(t, "main", ev.PullRequest.BaseBranch)
	assert.Equal(t, "abc123", ev.PullRequest.HeadSHA)
	assert.Equal(t, "mincong-h", ev.PullRequest.AuthorLogin)
	assert.Equal(t, "2026-08-29T10:00:00Z", ev.PullRequest.UpdatedAt)
	assert.Equal(t, "vertesia/studio/pull/42", ev.ID().String())
}

func TestReceiveEvent_IssueCommentOnPullRequest(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	body := `{
		"action": "created",
		"repository": {"name": "studio", "owner": {"login": "vertesia"}},
		"issue": {"number": 42, "pull_request": {"url": "https://api.github.com/repos/vertesia/studio/pulls/42"}},
		"comment": {"body": "Vertesia, please review", "user": {"login": "mincong-h"}}
	}`
	resp := postEvent(t, srv, "issue_comment", body)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, dispatcher.events, 1)

	ev := dispatcher.events[0]
	assert.Equal(t, model.EventIssueComment, ev.Kind)
	require.NotNil(t, ev.Comment)
	assert.Equal(t, "mincong-h", ev.Comment.AuthorLogin)
	assert.Equal(t, "Vertesia, please review", ev.Comment.CommentBody)
	assert.Equal(t, "vertesia/studio/pull/42", ev.ID().String())
}

func TestReceiveEvent_CommentOnPlainIssueIsIgnored(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	body := `{
		"action": "created",
		"repository": {"name": "studio", "owner": {"login": "vertesia"}},
		"issue": {"number": 7},
		"comment": {"body": "thanks", "user": {"login": "mincong-h"}}
	}`
	resp := postEvent(t, srv, "issue_comment", body)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_EditedCommentIsIgnored(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	body := `{
		"action": "edited",
		"repository": {"name": "studio", "owner": {"login": "vertesia"}},
		"issue": {"number": 42, "pull_request": {}},
		"comment": {"body": "Vertesia, please review", "user": {"login": "mincong-h"}}
	}`
	resp := postEvent(t, srv, "issue_comment", body)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_UnsupportedTypeIsAcknowledged(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	resp := postEvent(t, srv, "push", `{"ref": "refs/heads/main"}`)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_Ping(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	resp := postEvent(t, srv, "ping", `{"zen": "Keep it logically awesome."}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_InvalidJSON(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	resp := postEvent(t, srv, "pull_request", `{not json`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_MissingRepository(t *testing.T) {
	srv, dispatcher := newTestServer(t)

	resp := postEvent(t, srv, "pull_request", `{"action": "opened", "pull_request": {"number": 42}}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, dispatcher.events)
}

func TestReceiveEvent_DispatchFailure(t *testing.T) {
	srv, dispatcher := newTestServer(t)
	dispatcher.err = fmt.Errorf("dispatcher is shut down")

	resp := postEvent(t, srv, "pull_request", pullRequestBody)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
}
