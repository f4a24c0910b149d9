package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vertesia/github-assistant/internal/domain/model"
)

// maxPayloadBytes caps the webhook body size. GitHub payloads are well under
// this; anything larger is rejected.
const maxPayloadBytes = 10 << 20

// EventDispatcher routes a decoded webhook event to its assistant instance.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) error
}

// Handler is the HTTP driving adapter that receives GitHub webhook deliveries.
type Handler struct {
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(dispatcher EventDispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/events", h.ReceiveEvent)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ReceiveEvent accepts one GitHub webhook delivery. The event type comes from
// the X-GitHub-Event header; unsupported types are acknowledged and ignored so
// GitHub does not retry them.
func (h *Handler) ReceiveEvent(w http.ResponseWriter, r *http.Request) {
	kind := r.Header.Get("X-GitHub-Event")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var ev model.Event
	switch kind {
	case "ping":
		writeJSON(w, http.StatusOK, AckResponse{Status: "pong"})
		return
	case "pull_request":
		ev, err = decodePullRequestEvent(body)
	case "issue_comment":
		ev, err = decodeIssueCommentEvent(body)
	default:
		h.logger.Debug("ignoring unsupported event type", "event", kind)
		writeJSON(w, http.StatusAccepted, AckResponse{Status: "ignored"})
		return
	}
	if err != nil {
		h.logger.Warn("failed to decode webhook payload", "event", kind, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if ev.Kind == "" {
		// Decoded fine but not actionable, e.g. a comment on a plain issue.
		writeJSON(w, http.StatusAccepted, AckResponse{Status: "ignored"})
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		h.logger.Error("failed to dispatch event", "event", kind, "instance_id", ev.ID().String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusAccepted, AckResponse{Status: "accepted"})
}

// decodePullRequestEvent promotes a pull_request payload into a domain event.
func decodePullRequestEvent(body []byte) (model.Event, error) {
	var payload pullRequestEventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Event{}, err
	}
	if err := payload.validate(); err != nil {
		return model.Event{}, err
	}

	pr := payload.PullRequest
	return model.Event{
		Kind: model.EventPullRequest,
		PullRequest: &model.PullRequestEvent{
			Action:      payload.Action,
			Org:         payload.Repository.Owner.Login,
			Repo:        payload.Repository.Name,
			Number:      pr.Number,
			Title:       pr.Title,
			Body:        pr.Body,
			Branch:      pr.Head.Ref,
			BaseBranch:  pr.Base.Ref,
			HeadSHA:     pr.Head.SHA,
			DiffURL:     pr.DiffURL,
			HTMLURL:     pr.HTMLURL,
			AuthorLogin: pr.User.Login,
			State:       pr.State,
			Merged:      pr.Merged,
			UpdatedAt:   pr.UpdatedAt,
		},
		Raw: body,
	}, nil
}

// decodeIssueCommentEvent promotes an issue_comment payload into a domain
// event. Comments on plain issues (no pull_request link) and non-created
// actions yield a zero event, which the handler acknowledges without
// dispatching.
func decodeIssueCommentEvent(body []byte) (model.Event, error) {
	var payload issueCommentEventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Event{}, err
	}
	if payload.Action != "created" || payload.Issue.PullRequest == nil {
		return model.Event{}, nil
	}
	if err := payload.validate(); err != nil {
		return model.Event{}, err
	}

	return model.Event{
		Kind: model.EventIssueComment,
		Comment: &model.IssueCommentEvent{
			Org:         payload.Repository.Owner.Login,
			Repo:        payload.Repository.Name,
			Number:      payload.Issue.Number,
			AuthorLogin: payload.Comment.User.Login,
			CommentBody: payload.Comment.Body,
		},
		Raw: body,
	}, nil
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
