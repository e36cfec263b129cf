package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/listing-dupcheck/internal/domain"
	"github.com/couchcryptid/listing-dupcheck/internal/drafts"
)

// maxBodyBytes bounds request bodies. Drafts are a handful of short fields.
const maxBodyBytes = 64 << 10

// Checker runs a duplicate check.
type Checker interface {
	Check(ctx context.Context, d domain.DraftAttributes) domain.MatchResult
}

// DraftRecorder records verdicts on drafts and gates their submission.
type DraftRecorder interface {
	Record(ctx context.Context, draftID string, res domain.MatchResult) (bool, error)
	Submit(ctx context.Context, draftID string, override bool) error
}

// ProjectLookup resolves a catalog project by ID.
type ProjectLookup interface {
	Get(ctx context.Context, id string) (domain.CatalogEntry, bool)
}

// API groups the handlers' dependencies. Drafts and Projects are optional;
// their routes are only registered when set.
type API struct {
	Checker  Checker
	Drafts   DraftRecorder
	Projects ProjectLookup
}

// Server exposes the duplicate-check API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, api API, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("POST /v1/duplicate-check", s.handleCheck)
	if api.Drafts != nil {
		mux.HandleFunc("POST /v1/drafts/{id}/duplicate-check", s.handleDraftCheck)
		mux.HandleFunc("POST /v1/drafts/{id}/submit", s.handleSubmit)
	}
	if api.Projects != nil {
		mux.HandleFunc("GET /v1/projects/{id}", s.handleProject)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	d, ok := s.readDraft(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.api.Checker.Check(r.Context(), d))
}

func (s *Server) handleDraftCheck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, ok := s.readDraft(w, r)
	if !ok {
		return
	}

	res := s.api.Checker.Check(r.Context(), d)
	if _, err := s.api.Drafts.Record(r.Context(), id, res); err != nil {
		s.writeDraftError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type submitRequest struct {
	DuplicateOverrideConfirmed bool `json:"duplicateOverrideConfirmed"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req submitRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid submit request")
			return
		}
	}

	if err := s.api.Drafts.Submit(r.Context(), id, req.DuplicateOverrideConfirmed); err != nil {
		s.writeDraftError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	e, ok := s.api.Projects.Get(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// readDraft decodes the request body as a draft. A body that is not valid
// JSON is treated as an empty draft so the check still answers.
func (s *Server) readDraft(w http.ResponseWriter, r *http.Request) (domain.DraftAttributes, bool) {
	var d domain.DraftAttributes

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return d, false
	}
	if err := json.Unmarshal(body, &d); err != nil {
		s.logger.Debug("malformed draft body, checking as empty", "error", err)
		d = domain.DraftAttributes{}
	}
	return d, true
}

func (s *Server) writeDraftError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, drafts.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "draft not found")
	case errors.Is(err, drafts.ErrSubmissionBlocked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("draft operation failed", "draft_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "draft store unavailable")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
