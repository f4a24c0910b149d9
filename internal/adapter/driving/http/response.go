package httphandler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AckResponse acknowledges a webhook delivery.
type AckResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// userPayload is the nested GitHub user object.
type userPayload struct {
	Login string `json:"login"`
}

// repositoryPayload is the nested GitHub repository object.
type repositoryPayload struct {
	Name  string      `json:"name"`
	Owner userPayload `json:"owner"`
}

// pullRequestPayload is the nested pull request object of a webhook delivery.
type pullRequestPayload struct {
	Number    int         `json:"number"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	Merged    bool        `json:"merged"`
	DiffURL   string      `json:"diff_url"`
	HTMLURL   string      `json:"html_url"`
	UpdatedAt string      `json:"updated_at"`
	User      userPayload `json:"user"`
	Head      struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

// pullRequestEventPayload is the body of a pull_request webhook delivery.
type pullRequestEventPayload struct {
	Action      string             `json:"action"`
	Repository  repositoryPayload  `json:"repository"`
	PullRequest pullRequestPayload `json:"pull_request"`
}

func (p *pullRequestEventPayload) validate() error {
	if p.Repository.Owner.Login == "" || p.Repository.Name == "" {
		return fmt.Errorf("payload is missing the repository identity")
	}
	if p.PullRequest.Number <= 0 {
		return fmt.Errorf("payload is missing the pull request number")
	}
	return nil
}

// issueCommentEventPayload is the body of an issue_comment webhook delivery.
// Issue.PullRequest is non-nil only when the comment sits on a pull request.
type issueCommentEventPayload struct {
	Action     string            `json:"action"`
	Repository repositoryPayload `json:"repository"`
	Issue      struct {
		Number      int              `json:"number"`
		PullRequest *json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	Comment struct {
		Body string      `json:"body"`
		User userPayload `json:"user"`
	} `json:"comment"`
}

func (p *issueCommentEventPayload) validate() error {
	if p.Repository.Owner.Login == "" || p.Repository.Name == "" {
		return fmt.Errorf("payload is missing the repository identity")
	}
	if p.Issue.Number <= 0 {
		return fmt.Errorf("payload is missing the issue number")
	}
	return nil
}
