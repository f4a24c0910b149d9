package application

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/vertesia/github-assistant/internal/config"
	"github.com/vertesia/github-assistant/internal/domain/model"
)

// ComposeComment renders the full aggregated comment from the assistant
// context. Rendering is a pure function of the context: every upsert
// replaces the whole comment body, so sections that are still pending show a
// placeholder instead of being omitted.
func ComposeComment(actx *model.AssistantContext) string {
	repo := config.GetRepoFeatures(actx.PullRequest.Org, actx.PullRequest.Repo)

	// Headers only make sense when more than one section can show up.
	includeHeader := repo.SupportMultipleFeatures

	var b strings.Builder
	if repo.SupportDiffSummary {
		b.WriteString(composeDiffSummary(actx.Summary, includeHeader))
	}
	if repo.SupportPurpose {
		b.WriteString(composePurpose(&actx.PullRequest, includeHeader))
	}
	if repo.SupportDeploymentSummary {
		b.WriteString(composeDeployment(actx.Deployment, includeHeader))
	}
	if repo.SupportCodeReview {
		b.WriteString(composeCodeReview(&actx.PullRequest))
	}
	return strings.TrimSpace(b.String())
}

func composeDiffSummary(summary *model.DiffSummary, includeHeader bool) string {
	header := ""
	if includeHeader {
		header = "## Changes\n\n"
	}
	if summary == nil {
		return header + "_Summary is not available yet._\n\n"
	}

	content := header + summary.Summary
	if summary.Breakdown != "" {
		content += "\n\n" + summary.Breakdown
	}
	return content + "\n\n"
}

func composePurpose(pr *model.PullRequestContext, includeHeader bool) string {
	header := ""
	if includeHeader {
		header = "## Purpose\n\n"
	}
	if pr.Motivation == "" || pr.Context == "" {
		return header + "_Purpose is not available yet._\n\n"
	}

	content := header + pr.Motivation + "\n\n" + pr.Context + "\n\n"
	if len(pr.RelatedIssues) > 0 {
		content += "Related issues:\n\n"
		urls := make([]string, 0, len(pr.RelatedIssues))
		for url := range pr.RelatedIssues {
			urls = append(urls, url)
		}
		sort.Strings(urls)
		for _, url := range urls {
			content += "* " + url + "\n"
		}
		content += "\n"
	} else {
		content += "Related issues: N/A\n\n"
	}
	return content
}

func composeDeployment(spec *model.DeploymentSpec, includeHeader bool) string {
	header := ""
	if includeHeader {
		header = "## Deployment\n\n"
	}
	if spec == nil {
		return header + `Your pull request does not contain a dev environment.` +
			` To enable a dev environment, please create a branch with the prefix "demo-",` +
			" or contains keyword \"feat\" or \"fix\".\n\n"
	}

	deployedClouds := "GCP"
	if spec.AWS != nil {
		deployedClouds = "GCP and AWS"
	}
	optionalVercel := ""
	if spec.Vercel != nil {
		optionalVercel = fmt.Sprintf(" The Studio UI is available at <%s>.", spec.Vercel.StudioUIURL)
	}

	specJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		// DeploymentSpec is a plain value type; this cannot happen in practice.
		specJSON = []byte("{}")
	}

	return fmt.Sprintf("%sYour dev environment `%s` will be deployed to %s.%s\n\n"+
		"<details><summary><b>Click here</b> to learn more about your environment.</summary>\n\n"+
		"```json\n%s\n```\n</details>\n\n",
		header, spec.Environment, deployedClouds, optionalVercel, specJSON)
}

// Advisory notes per clearness rating. Ratings 1-3 ask the author to improve
// the description; 4-5 confirm the purpose is understood.
var clearnessNotes = map[int]string{
	1: "Note that the motivation and context are rated as very unclear (1/5), please explain" +
		" the motivation and describe the problem to clarify the purpose of the pull request." +
		" You can provide information in the pull request description or link this pull" +
		" request to a GitHub issue.",
	2: "Note that the motivation and context are rated as unclear (2/5), please explain" +
		" the motivation and describe the problem to clarify the purpose of the pull request." +
		" You can provide information in the pull request description or link this pull" +
		" request to a GitHub issue.",
	3: "Note that the motivation and context are rated as moderate (3/5), you can improve" +
		" the motivation and the problem statement to clarify the purpose of the pull request." +
		" You can provide information in the pull request description or link this pull" +
		" request to a GitHub issue.",
	4: "Note that the motivation and context are rated as clear (4/5). The agent has a good" +
		" understanding of the purpose of the pull request.",
	5: "Note that the motivation and context are rated as very clear (5/5). The agent has a" +
		" very good understanding of the purpose of the pull request.",
}

func composeCodeReview(pr *model.PullRequestContext) string {
	content := "## Code Review\n\n" +
		"You can start a code review by adding a comment: \"Vertesia, please review\".\n\n"
	if note, ok := clearnessNotes[pr.Clearness]; ok {
		content += note + "\n\n"
	}
	return content
}
