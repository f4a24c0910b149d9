// Package vertesia implements the ContentClient port against the Vertesia
// interaction-execution API and its content store.
package vertesia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/vertesia/github-assistant/internal/domain/model"
	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ContentClient = (*Client)(nil)

// Interaction endpoints, pinned by version. Bumping a version here changes
// behavior for every instance at once, so new versions go through the
// behavior gates in the application layer first.
const (
	endpointSummarizeCodeDiff = "summarize_code_diff@2"
	endpointDeterminePurpose  = "determine_pull_request_purpose@2"
	endpointReviewFilePatch   = "review_file_patch@2"
)

// changeEntryContentType is the content-store type ID of a change-log entry.
const changeEntryContentType = "6821524ef3aed394f1ec4931"

// Client talks to the content-generation service over HTTP. Each call is
// retried with exponential backoff up to maxAttempts; the service performs
// inference, so generous per-call timeouts are expected from the caller's
// context.
type Client struct {
	httpClient *http.Client
	serverURL  string
	storeURL   string
	apiKey     string

	maxAttempts uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxAttempts bounds the number of attempts per call, including the
// first one.
func WithMaxAttempts(n uint64) Option {
	return func(c *Client) { c.maxAttempts = n }
}

// NewClient creates a content-service client. serverURL hosts the
// interaction-execution API, storeURL the content store.
func NewClient(serverURL, storeURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		serverURL:   serverURL,
		storeURL:    storeURL,
		apiKey:      apiKey,
		maxAttempts: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type summarizeRequest struct {
	CodeDiff  string `json:"code_diff"`
	Guideline string `json:"guideline,omitempty"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
	Changes []struct {
		PathOrGlob  string `json:"path_or_glob"`
		Description string `json:"description"`
	} `json:"changes"`
}

// GenerateDiffSummary summarizes a unified diff into a human-readable
// overview, with an optional per-path breakdown.
func (c *Client) GenerateDiffSummary(ctx context.Context, req driven.DiffSummaryRequest) (driven.DiffSummaryResult, error) {
	var resp summarizeResponse
	err := c.execute(ctx, endpointSummarizeCodeDiff, summarizeRequest{
		CodeDiff:  req.Diff,
		Guideline: req.Guideline,
	}, &resp)
	if err != nil {
		return driven.DiffSummaryResult{}, err
	}

	result := driven.DiffSummaryResult{Summary: resp.Summary}
	if req.BreakdownEnabled {
		for _, ch := range resp.Changes {
			result.Changes = append(result.Changes, driven.DiffSummaryChange{
				PathOrGlob:  ch.PathOrGlob,
				Description: ch.Description,
			})
		}
	}
	return result, nil
}

type purposeRequest struct {
	PullRequest string   `json:"pull_request"`
	Issues      []string `json:"issues"`
}

type purposeResponse struct {
	Motivation string `json:"motivation"`
	Context    string `json:"context"`
	Clearness  int    `json:"clearness"`
}

// GeneratePurpose infers the motivation and context of a pull request from
// its description and the descriptions of its related issues.
func (c *Client) GeneratePurpose(ctx context.Context, prDescription string, issueDescriptions []string) (driven.PurposeResult, error) {
	if issueDescriptions == nil {
		issueDescriptions = []string{}
	}

	var resp purposeResponse
	err := c.execute(ctx, endpointDeterminePurpose, purposeRequest{
		PullRequest: prDescription,
		Issues:      issueDescriptions,
	}, &resp)
	if err != nil {
		return driven.PurposeResult{}, err
	}

	return driven.PurposeResult{
		Motivation: resp.Motivation,
		Context:    resp.Context,
		Clearness:  resp.Clearness,
	}, nil
}

type reviewPatchRequest struct {
	FilePath           string `json:"file_path"`
	FilePatch          string `json:"file_patch"`
	PullRequestPurpose string `json:"pull_request_purpose,omitempty"`
}

type reviewPatchResponse struct {
	Comments []struct {
		Body      string `json:"body"`
		Line      int    `json:"line,omitempty"`
		Side      string `json:"side,omitempty"`
		StartLine int    `json:"start_line,omitempty"`
		StartSide string `json:"start_side,omitempty"`
	} `json:"comments"`
}

// GenerateLineComments reviews one file patch and returns line-level
// comments. Applicability against the diff hunks is left to the caller.
func (c *Client) GenerateLineComments(ctx context.Context, req driven.LineCommentRequest) ([]model.ReviewComment, error) {
	var resp reviewPatchResponse
	err := c.execute(ctx, endpointReviewFilePatch, reviewPatchRequest{
		FilePath:           req.FilePath,
		FilePatch:          req.Patch,
		PullRequestPurpose: req.Purpose,
	}, &resp)
	if err != nil {
		return nil, err
	}

	comments := make([]model.ReviewComment, 0, len(resp.Comments))
	for _, rc := range resp.Comments {
		comments = append(comments, model.ReviewComment{
			FilePath:  req.FilePath,
			Body:      rc.Body,
			Line:      rc.Line,
			Side:      rc.Side,
			StartLine: rc.StartLine,
			StartSide: rc.StartSide,
		})
	}
	return comments, nil
}

type storeObjectPayload struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Text       string         `json:"text"`
	Properties map[string]any `json:"properties"`
	Tags       []string       `json:"tags,omitempty"`
}

type storeObjectResponse struct {
	ID string `json:"id"`
}

// AppendChangeLogEntry records a merged pull request as a change-entry
// object in the content store.
func (c *Client) AppendChangeLogEntry(ctx context.Context, entry driven.ChangeLogEntry) (driven.ChangeLogReceipt, error) {
	payload := storeObjectPayload{
		Type: changeEntryContentType,
		Name: entry.Title,
		Text: entry.Description,
		Properties: map[string]any{
			"pull_request": map[string]any{
				"number":               entry.Number,
				"html_url":             entry.HTMLURL,
				"owner":                entry.Org,
				"repository":           entry.Repo,
				"repository_full_name": entry.RepoFullName,
			},
			"author": map[string]any{
				"user_id": entry.AuthorLogin,
				"date":    entry.CommitDate,
			},
		},
		Tags: entry.Tags,
	}

	var resp storeObjectResponse
	url := c.storeURL + "/api/v1/objects"
	if err := c.post(ctx, url, payload, &resp); err != nil {
		return driven.ChangeLogReceipt{}, fmt.Errorf("creating change entry for %s#%d: %w", entry.RepoFullName, entry.Number, err)
	}

	return driven.ChangeLogReceipt{
		EntryID:  resp.ID,
		EntryURL: c.storeURL + "/store/objects/" + resp.ID,
	}, nil
}

// execute runs one named interaction. The API wraps the request in a "data"
// envelope and the response in a "result" envelope.
func (c *Client) execute(ctx context.Context, endpoint string, data any, result any) error {
	url := c.serverURL + "/api/v1/interactions/execute/" + endpoint

	envelope := struct {
		Data any `json:"data"`
	}{Data: data}

	var response struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.post(ctx, url, envelope, &response); err != nil {
		return fmt.Errorf("executing interaction %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return fmt.Errorf("decoding result of interaction %s: %w", endpoint, err)
	}

	slog.Debug("executed interaction", "endpoint", endpoint)
	return nil
}

// post sends one JSON request with exponential-backoff retry. Responses with
// 4xx status codes are permanent failures; everything else is retried.
func (c *Client) post(ctx context.Context, url string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
			if resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		return json.NewDecoder(resp.Body).Decode(result)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxAttempts-1),
		ctx,
	)
	return backoff.Retry(operation, policy)
}
