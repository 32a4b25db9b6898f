package review

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// Review actions accepted over HTTP.
const (
	ActionApprove        = "approve"
	ActionRequestChanges = "request_changes"
	ActionReject         = "reject"
)

// Server exposes reviewer verdicts over HTTP. This surface mutates task
// state, so deployments keep it on an operator-facing listener separate
// from the read-only query API.
type Server struct {
	service *Service
	logger  *slog.Logger
}

// NewServer creates an HTTP server around the review service.
func NewServer(service *Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{service: service, logger: logger}
}

// Register installs the review routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /review/{taskId}", s.handleReview)
}

type reviewRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id := core.TaskID(r.PathValue("taskId"))

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		task *core.Task
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case ActionApprove:
		task, err = s.service.Approve(r.Context(), id)
	case ActionRequestChanges:
		task, err = s.service.RequestChanges(r.Context(), id)
	case ActionReject:
		task, err = s.service.Reject(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, ErrUnknownAction.Error()+": "+req.Action)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, ErrNotReviewable), errors.Is(err, storage.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("error applying verdict", "task", id, "action", req.Action, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to apply verdict")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"taskId": task.Id,
		"status": task.Status,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
