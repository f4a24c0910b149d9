// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/vertesia/github-assistant/internal/config"
	"github.com/vertesia/github-assistant/internal/domain/model"
	"github.com/vertesia/github-assistant/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchIssue retrieves the title and body of a single issue.
func (c *Client) FetchIssue(ctx context.Context, ref model.GithubIssueRef) (model.GithubIssue, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, ref.Org, ref.Repo, ref.Number)
	if err != nil {
		return model.GithubIssue{}, fmt.Errorf("fetching issue %s/%s#%d: %w", ref.Org, ref.Repo, ref.Number, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s/issues/%d", ref.Org, ref.Repo, ref.Number), 0, 1)

	return model.GithubIssue{
		Org:    ref.Org,
		Repo:   ref.Repo,
		Number: ref.Number,
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
	}, nil
}

// FetchGuideline loads the repository guideline document at the given ref.
// Candidate paths are tried in order; the first readable file wins. A 404 on
// one candidate moves on to the next, any other error aborts.
func (c *Client) FetchGuideline(ctx context.Context, org, repo, ref string) (string, error) {
	opts := &gh.RepositoryContentGetOptions{Ref: ref}

	for _, path := range config.GuidelineCandidates {
		content, _, resp, err := c.gh.Repositories.GetContents(ctx, org, repo, path, opts)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				continue
			}
			return "", fmt.Errorf("fetching guideline %s from %s/%s@%s: %w", path, org, repo, ref, err)
		}
		if content == nil {
			// Path resolved to a directory.
			continue
		}
		text, err := content.GetContent()
		if err != nil {
			return "", fmt.Errorf("decoding guideline %s from %s/%s@%s: %w", path, org, repo, ref, err)
		}
		return text, nil
	}

	return "", fmt.Errorf("no guideline document found in %s/%s@%s", org, repo, ref)
}

// FetchDiff returns the raw unified diff of a pull request.
func (c *Client) FetchDiff(ctx context.Context, org, repo string, prNumber int) (string, error) {
	diff, resp, err := c.gh.PullRequests.GetRaw(ctx, org, repo, prNumber, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", fmt.Errorf("fetching diff for %s/%s#%d: %w", org, repo, prNumber, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s/pull/%d.diff", org, repo, prNumber), 0, 1)

	return diff, nil
}

// ListChangedFiles lists the files changed by a pull request. It handles
// pagination automatically and maps go-github types to domain model types.
func (c *Client) ListChangedFiles(ctx context.Context, org, repo string, prNumber int) ([]model.ChangedFile, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var allFiles []model.ChangedFile

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, org, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s/%s#%d (page %d): %w", org, repo, prNumber, opts.Page, err)
		}

		logRateLimit(resp, fmt.Sprintf("%s/%s/pull/%d/files", org, repo, prNumber), opts.Page, len(files))

		for _, f := range files {
			allFiles = append(allFiles, model.ChangedFile{
				Filename: f.GetFilename(),
				Patch:    f.GetPatch(),
				Status:   f.GetStatus(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if allFiles == nil {
		allFiles = []model.ChangedFile{}
	}

	return allFiles, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
