// Package httpserver exposes the sync engine over a small JSON API. The
// service sits behind an authenticating gateway, so tenant and user arrive
// as trusted headers.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/datasaude/hrsync/internal/errs"
	"github.com/datasaude/hrsync/internal/model"
	"github.com/datasaude/hrsync/internal/repository"
)

// Dispatcher starts a sync run in the background and returns a task handle.
type Dispatcher interface {
	Dispatch(ctx context.Context, kind model.SyncKind, tenantID, userID, runID uuid.UUID) string
}

// Stopper finalizes an in-flight run on behalf of a user.
type Stopper interface {
	Stop(ctx context.Context, tenantID, runID uuid.UUID) error
}

// Server wires the HTTP routes to the sync engine.
type Server struct {
	logs         repository.SyncLogRepository
	dispatcher   Dispatcher
	stopper      Stopper
	log          *zap.Logger
	historyLimit int
}

// New constructs the HTTP server facade.
func New(logs repository.SyncLogRepository, dispatcher Dispatcher, stopper Stopper, log *zap.Logger, historyLimit int) *Server {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &Server{
		logs:         logs,
		dispatcher:   dispatcher,
		stopper:      stopper,
		log:          log,
		historyLimit: historyLimit,
	}
}

// Router builds the chi route tree with logging and panic recovery applied
// to every route and identity extraction applied to the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log))
	r.Use(Logging(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/employees", s.handleTrigger(model.KindEmployee))
		r.Post("/absences", s.handleTrigger(model.KindAbsence))
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Get("/details", s.handleDetails)
			r.Post("/stop", s.handleStop)
			r.Delete("/", s.handleDelete)
		})
	})
	return r
}

type triggerResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SyncLogID string `json:"sync_log_id"`
	TaskID    string `json:"task_id,omitempty"`
}

type statusResponse struct {
	ID               string  `json:"id"`
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	RecordsProcessed int     `json:"records_processed"`
	RecordsSuccess   int     `json:"records_success"`
	RecordsError     int     `json:"records_error"`
	Completed        bool    `json:"completed"`
	EndTime          *string `json:"end_time,omitempty"`
}

type detailsResponse struct {
	statusResponse
	Kind      string `json:"kind"`
	Company   string `json:"company"`
	StartTime string `json:"start_time"`
	Duration  string `json:"duration,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
}

// handleTrigger creates the run record up front with the pessimistic status
// and hands it to the dispatcher, so the client can poll immediately.
func (s *Server) handleTrigger(kind model.SyncKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, userID := identityFrom(r.Context())

		run := &model.SyncLog{
			TenantID:  tenantID,
			UserID:    userID,
			Kind:      kind,
			Status:    model.StatusError,
			Message:   "Iniciando sincronização...",
			StartTime: time.Now().UTC(),
		}
		if err := s.logs.Create(r.Context(), run); err != nil {
			s.internalError(w, "create sync log", err)
			return
		}

		taskID := s.dispatcher.Dispatch(r.Context(), kind, tenantID, userID, run.ID)

		writeJSON(w, http.StatusAccepted, triggerResponse{
			Success:   true,
			Message:   "Sincronização iniciada.",
			SyncLogID: run.ID.String(),
			TaskID:    taskID,
		})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toStatus(run))
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}

	resp := detailsResponse{
		statusResponse: toStatus(run),
		Kind:           string(run.Kind),
		Company:        run.Company,
		StartTime:      run.StartTime.Format(time.RFC3339),
		TaskID:         run.TaskID,
	}
	if run.EndTime != nil {
		resp.Duration = formatDuration(run.EndTime.Sub(run.StartTime))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := identityFrom(r.Context())
	id, ok := runID(w, r)
	if !ok {
		return
	}

	err := s.stopper.Stop(r.Context(), tenantID, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "sync log not found", http.StatusNotFound)
	case errors.Is(err, errs.ErrAlreadyFinished):
		http.Error(w, "sync already finished", http.StatusConflict)
	case err != nil:
		s.internalError(w, "stop sync", err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Sincronização interrompida pelo usuário.",
		})
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := identityFrom(r.Context())
	id, ok := runID(w, r)
	if !ok {
		return
	}

	err := s.logs.Delete(r.Context(), tenantID, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "sync log not found", http.StatusNotFound)
	case err != nil:
		s.internalError(w, "delete sync log", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID, _ := identityFrom(r.Context())

	limit := s.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	runs, err := s.logs.List(r.Context(), tenantID, limit)
	if err != nil {
		s.internalError(w, "list sync logs", err)
		return
	}

	out := make([]statusResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toStatus(&runs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadRun resolves the {id} route param into a tenant-scoped run.
func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*model.SyncLog, bool) {
	tenantID, _ := identityFrom(r.Context())
	id, ok := runID(w, r)
	if !ok {
		return nil, false
	}

	run, err := s.logs.Get(r.Context(), tenantID, id)
	if errors.Is(err, errs.ErrNotFound) {
		http.Error(w, "sync log not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.internalError(w, "get sync log", err)
		return nil, false
	}
	return run, true
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid sync log id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func toStatus(run *model.SyncLog) statusResponse {
	resp := statusResponse{
		ID:               run.ID.String(),
		Status:           string(run.Status),
		Message:          run.Message,
		RecordsProcessed: run.RecordsProcessed,
		RecordsSuccess:   run.RecordsSuccess,
		RecordsError:     run.RecordsError,
		Completed:        run.Finished(),
	}
	if run.EndTime != nil {
		t := run.EndTime.Format(time.RFC3339)
		resp.EndTime = &t
	}
	return resp
}

// formatDuration renders a run duration as "XmYs", the shape the frontend
// history view expects.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%dm%ds", total/60, total%60)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
