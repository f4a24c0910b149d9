package model

// DeploymentSpec describes the target deployment environment of a branch.
// The JSON tags matter: the struct is embedded verbatim in the aggregated
// comment, and downstream tooling parses it from there.
type DeploymentSpec struct {
	Environment string             `json:"environment"`
	GCP         GCPDeployment      `json:"gcp"`
	AWS         *AWSDeployment     `json:"aws,omitempty"`
	Runtime     RuntimeRouting     `json:"runtime"`
	Vercel      *VercelDeployment  `json:"vercel,omitempty"`
}

// GCPDeployment names the GCP resources of an environment.
type GCPDeployment struct {
	CloudRunStudioServer string `json:"cloudRunStudioServerName"`
	CloudRunZenoServer   string `json:"cloudRunZenoServerName"`
	KubeCluster          string `json:"kubeClusterName"`
	KubeNamespace        string `json:"kubeNamespace"`
	KubeDeployment       string `json:"kubeDeployment"`
	StudioAPIBaseURL     string `json:"studioApiBaseUrl"`
	ZenoAPIBaseURL       string `json:"zenoApiBaseUrl"`
}

// AWSDeployment names the AWS resources of an environment. Only present for
// branches explicitly opting into AWS.
type AWSDeployment struct {
	AppRunnerStudioServer string `json:"appRunnerStudioServerName"`
	AppRunnerZenoServer   string `json:"appRunnerZenoServerName"`
	StudioAPIBaseURL      string `json:"studioApiBaseUrl"`
	ZenoAPIBaseURL        string `json:"zenoApiBaseUrl"`
}

// RuntimeRouting carries the durable-runtime routing of an environment.
type RuntimeRouting struct {
	Namespace  string `json:"namespace"`
	TaskQueue  string `json:"taskQueue"`
	ConsoleURL string `json:"consoleUrl"`
}

// VercelDeployment is the preview-deployment sub-spec. It is filled in
// asynchronously from the preview bot's comment and is the only part of the
// spec that survives recomputation.
type VercelDeployment struct {
	StudioUIURL string `json:"studioUiUrl"`
}
