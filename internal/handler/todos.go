package handler

import (
	"net/http"
	"strings"

	"todos/internal/todo"
	"todos/internal/validate"
)

// ---------- GET /api/todos ----------

// ListTodos returns the collection narrowed by ?filter.
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	filter := todo.ParseFilter(r.URL.Query().Get("filter"))

	todos, err := h.Store.Load(r.Context())
	if err != nil {
		h.fail(w, r, err, msgFetchFailed)
		return
	}
	writeJSON(w, http.StatusOK, todo.FilterTodos(todos, filter))
}

// ---------- POST /api/todos ----------

// CreateTodo appends a new incomplete todo built from {"text": "..."}.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	if err := validate.Body(validate.CreateRequest, body); err != nil {
		writeError(w, http.StatusBadRequest, msgTextRequired)
		return
	}
	text, _ := body["text"].(string)
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, msgTextRequired)
		return
	}

	var created todo.Todo
	err := h.mutate(r.Context(), func(todos []todo.Todo) ([]todo.Todo, error) {
		t, err := todo.New(text, h.Now())
		if err != nil {
			return nil, err
		}
		created = t
		return append(todos, t), nil
	})
	if err != nil {
		h.fail(w, r, err, msgCreateFailed)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ---------- PATCH /api/todos ----------

// UpdateTodo merges the supplied fields onto the todo named by "id".
// Fields absent from the body stay as they were; unknown fields and
// createdAt are ignored.
func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeObject(w, r)
	if !ok {
		return
	}
	id, _ := body["id"].(string)
	if id == "" {
		writeError(w, http.StatusBadRequest, msgIDRequired)
		return
	}
	if err := validate.Body(validate.UpdateRequest, body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid update: "+err.Error())
		return
	}

	var patch todo.Patch
	if v, ok := body["text"].(string); ok {
		patch.Text = &v
	}
	if v, ok := body["completed"].(bool); ok {
		patch.Completed = &v
	}

	var updated todo.Todo
	err := h.mutate(r.Context(), func(todos []todo.Todo) ([]todo.Todo, error) {
		next, t, err := todo.Update(todos, id, patch)
		if err != nil {
			return nil, err
		}
		updated = t
		return next, nil
	})
	if err != nil {
		h.fail(w, r, err, msgUpdateFailed)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ---------- DELETE /api/todos ----------

// DeleteTodos removes the todo named by ?id, or every completed todo when
// no id is given.
func (h *Handler) DeleteTodos(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		h.clearCompleted(w, r)
		return
	}

	err := h.mutate(r.Context(), func(todos []todo.Todo) ([]todo.Todo, error) {
		return todo.Remove(todos, id)
	})
	if err != nil {
		h.fail(w, r, err, msgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true})
}

func (h *Handler) clearCompleted(w http.ResponseWriter, r *http.Request) {
	var remaining []todo.Todo
	err := h.mutate(r.Context(), func(todos []todo.Todo) ([]todo.Todo, error) {
		remaining = todo.ClearCompleted(todos)
		return remaining, nil
	})
	if err != nil {
		h.fail(w, r, err, msgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, remaining)
}

// ---------- GET /api/todos/live ----------

// Live streams collection snapshots over a websocket.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeError(w, http.StatusNotFound, "live updates are disabled")
		return
	}
	h.Hub.ServeWS(w, r, h.Store.Load)
}
