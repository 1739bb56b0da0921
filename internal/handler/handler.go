// Package handler implements the HTTP layer of the todo server.
//
// Routes:
//
//	GET    /                 dashboard page
//	GET    /health           health check {status: "ok"}
//	GET    /api/todos        list, optional ?filter=all|active|completed
//	POST   /api/todos        create {text}
//	PATCH  /api/todos        partial update {id, ...fields}
//	DELETE /api/todos?id=ID  delete one
//	DELETE /api/todos        clear completed
//	GET    /api/todos/live   websocket feed of collection snapshots
//
// Every API operation loads the whole collection from the store, applies one
// transformation and, when it mutates, saves the whole collection back.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"todos/internal/live"
	"todos/internal/store"
	"todos/internal/todo"
	"todos/internal/worker"
)

// Response messages.
const (
	msgFetchFailed  = "Failed to fetch todos"
	msgCreateFailed = "Failed to create todo"
	msgUpdateFailed = "Failed to update todo"
	msgDeleteFailed = "Failed to delete todo"
	msgTextRequired = "Text is required"
	msgIDRequired   = "Todo ID is required"
	msgNotFound     = "Todo not found"
	msgInvalidJSON  = "Invalid JSON body"
	msgNotObject    = "Request body must be a JSON object"
	msgBusy         = "Server is busy, try again later"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ---------- Response types ----------

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse acknowledges a single delete.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ---------- Handler ----------

// Handler holds the dependencies of the HTTP layer.
type Handler struct {
	Store  store.Store
	Writes worker.Runner // mutations run through here
	Hub    *live.Hub     // optional; nil disables the live feed
	Logger *log.Logger
	Now    func() time.Time
}

// New creates a Handler. A nil runner runs mutations inline; a nil hub
// disables the live feed.
func New(s store.Store, writes worker.Runner, hub *live.Hub, logger *log.Logger) *Handler {
	if writes == nil {
		writes = worker.Direct{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		Store:  s,
		Writes: writes,
		Hub:    hub,
		Logger: logger,
		Now:    time.Now,
	}
}

// RegisterRoutes registers every route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/todos", h.ListTodos)
	mux.HandleFunc("POST /api/todos", h.CreateTodo)
	mux.HandleFunc("PATCH /api/todos", h.UpdateTodo)
	mux.HandleFunc("DELETE /api/todos", h.DeleteTodos)
	mux.HandleFunc("GET /api/todos/live", h.Live)
}

// ---------- Helpers ----------

// writeJSON serializes payload with the proper Content-Type.
func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

// fail maps err to a status code. Known domain errors get their own
// message; anything else is logged and answered with the generic fallback.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, todo.ErrIDRequired):
		writeError(w, http.StatusBadRequest, msgIDRequired)
	case errors.Is(err, todo.ErrTextRequired):
		writeError(w, http.StatusBadRequest, msgTextRequired)
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		h.Logger.Warn("write rejected", "method", r.Method, "err", err)
		writeError(w, http.StatusServiceUnavailable, msgBusy)
	default:
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// mutate runs load → fn → save as one write job and publishes the saved
// collection. fn returning an error aborts without saving.
func (h *Handler) mutate(ctx context.Context, fn func([]todo.Todo) ([]todo.Todo, error)) error {
	return h.Writes.Do(ctx, func(ctx context.Context) error {
		todos, err := h.Store.Load(ctx)
		if err != nil {
			return err
		}
		next, err := fn(todos)
		if err != nil {
			return err
		}
		if err := h.Store.Save(ctx, next); err != nil {
			return err
		}
		if h.Hub != nil {
			h.Hub.Publish(next)
		}
		return nil
	})
}

// decodeObject reads a JSON object body. On failure it has already written
// a 400 and returns ok=false.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var v any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, msgNotObject)
		return nil, false
	}
	return obj, true
}
