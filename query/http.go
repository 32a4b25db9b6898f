package query

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/researchd/core"
	"github.com/poiesic/researchd/storage"
)

// Server exposes the query service over HTTP. Every route is a GET; the
// surface cannot mutate tasks.
type Server struct {
	service *Service
	logger  *slog.Logger
}

// NewServer creates an HTTP server around the query service.
func NewServer(service *Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{service: service, logger: logger}
}

// Register installs the query routes on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{taskId}", s.handleGetTask)
	mux.HandleFunc("GET /report/{taskId}", s.handleGetReport)
}

// Handler returns a standalone handler with all query routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return withLogging(s.logger, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTasks serves GET /tasks?status=a,b with an optional
// comma-separated status filter.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var statusNames []string
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				statusNames = append(statusNames, name)
			}
		}
	}

	summaries, err := s.service.ListTasks(r.Context(), statusNames...)
	if err != nil {
		s.logger.Error("error listing tasks", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": summaries})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := core.TaskID(r.PathValue("taskId"))
	task, err := s.service.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("error fetching task", "task", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleGetReport serves GET /report/{taskId}. A task without an
// authoritative report is a conflict, not an absence: the task exists,
// it just has nothing to hand out yet.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := core.TaskID(r.PathValue("taskId"))
	report, err := s.service.GetReport(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		case errors.Is(err, ErrReportNotReady):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.logger.Error("error fetching report", "task", id, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to fetch report")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"taskId": string(id), "report": report})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
