package application

import (
	"regexp"
	"strings"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

var environmentSlugPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ResolveDeploymentSpec maps a head branch to its deployment environment.
// "main" deploys to staging and "preview" to preview, both on GCP and AWS.
// Branches prefixed "demo" or containing "feat" or "fix" get an ephemeral
// dev environment, on AWS too when the branch name mentions "aws". Any other
// branch has no environment and returns nil.
func ResolveDeploymentSpec(branch string) *model.DeploymentSpec {
	if branch == "main" || branch == "preview" {
		env := "staging"
		if branch == "preview" {
			env = "preview"
		}
		return &model.DeploymentSpec{
			Environment: env,
			GCP: model.GCPDeployment{
				CloudRunStudioServer: "studio-server-" + env,
				CloudRunZenoServer:   "zeno-server-" + env,
				KubeCluster:          "composable-workers",
				KubeNamespace:        "default",
				KubeDeployment:       env + "-workers",
				StudioAPIBaseURL:     "https://studio-server-" + env + ".api.vertesia.io",
				ZenoAPIBaseURL:       "https://zeno-server-" + env + ".api.vertesia.io",
			},
			AWS: &model.AWSDeployment{
				AppRunnerStudioServer: "studio-server-" + env,
				AppRunnerZenoServer:   "zeno-server-" + env,
				StudioAPIBaseURL:      "https://studio-server-" + env + ".aws.api.vertesia.io",
				ZenoAPIBaseURL:        "https://zeno-server-" + env + ".aws.api.vertesia.io",
			},
			Runtime: model.RuntimeRouting{
				Namespace:  env + ".i16ci",
				TaskQueue:  "zeno-content",
				ConsoleURL: "https://cloud.temporal.io/namespaces/" + env + ".i16ci/workflows",
			},
		}
	}

	isDevBranch := strings.HasPrefix(branch, "demo") ||
		strings.Contains(branch, "feat") ||
		strings.Contains(branch, "fix")
	if !isDevBranch {
		return nil
	}

	env := "dev-" + environmentSlugPattern.ReplaceAllString(branch, "-")
	spec := &model.DeploymentSpec{
		Environment: env,
		GCP: model.GCPDeployment{
			CloudRunStudioServer: "studio-server-" + env,
			CloudRunZenoServer:   "zeno-server-" + env,
			KubeCluster:          "workers-dev",
			KubeNamespace:        "default",
			KubeDeployment:       env + "-workers",
			StudioAPIBaseURL:     "https://studio-server-" + env + ".api.vertesia.io",
			ZenoAPIBaseURL:       "https://zeno-server-" + env + ".api.vertesia.io",
		},
		Runtime: model.RuntimeRouting{
			Namespace:  "dev.i16ci",
			TaskQueue:  "zeno-content",
			ConsoleURL: "https://cloud.temporal.io/namespaces/dev.i16ci/workflows",
		},
	}
	if strings.Contains(branch, "aws") {
		spec.AWS = &model.AWSDeployment{
			AppRunnerStudioServer: "studio-server-" + env,
			AppRunnerZenoServer:   "zeno-server-" + env,
			StudioAPIBaseURL:      "https://studio-server-" + env + ".aws.api.vertesia.io",
			ZenoAPIBaseURL:        "https://zeno-server-" + env + ".aws.api.vertesia.io",
		}
	}
	return spec
}
