package application

import (
	"regexp"
	"strconv"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// Issue references come in two shapes: a bare numeric anchor like "#123",
// which belongs to the current repository, and a fully qualified issue URL,
// which may point at another repository.
var (
	issueAnchorPattern = regexp.MustCompile(`#(\d+)`)
	issueURLPattern    = regexp.MustCompile(`https://github\.com/([\w.-]+)/([\w.-]+)/issues/(\d+)`)
)

// ParseIssueRefs extracts issue references from arbitrary texts, typically
// the PR body and its head branch name. Results are deduplicated by
// canonical URL and returned in first-seen order. Text with no reference
// yields an empty slice, never an error.
func ParseIssueRefs(org, repo string, texts ...string) []model.GithubIssueRef {
	seen := make(map[string]bool)
	var refs []model.GithubIssueRef

	add := func(ref model.GithubIssueRef) {
		url := ref.HTMLURL()
		if seen[url] {
			return
		}
		seen[url] = true
		refs = append(refs, ref)
	}

	for _, text := range texts {
		for _, m := range issueAnchorPattern.FindAllStringSubmatch(text, -1) {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			add(model.GithubIssueRef{Org: org, Repo: repo, Number: number})
		}
		for _, m := range issueURLPattern.FindAllStringSubmatch(text, -1) {
			number, err := strconv.Atoi(m[3])
			if err != nil {
				continue
			}
			add(model.GithubIssueRef{Org: m[1], Repo: m[2], Number: number})
		}
	}

	return refs
}
