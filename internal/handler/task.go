package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dverhoef/taskhive/internal/service"
)

// allowedTaskUpdates are the only fields a task PATCH may touch.
var allowedTaskUpdates = map[string]bool{
	"description": true,
	"completed":   true,
}

// TaskHandler handles task HTTP requests. Every route here runs behind
// RequireAuth, and the owner is always the authenticated user.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// HandleCreate creates a task for the authenticated user. An owner field in
// the body is ignored; tasks can only be created for oneself.
// POST /tasks
// Request:  {"description":"...","completed":false}
// Response: 201 task
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	task, err := h.tasks.Create(r.Context(), user.ID, req.Description, req.Completed)
	if err != nil {
		writeDomainError(w, "create task", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

// HandleList lists the authenticated user's tasks.
// GET /tasks?completed=true&sortBy=createdAt:desc&limit=10&skip=20
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	q := r.URL.Query()

	var completed *bool
	if v := q.Get("completed"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid completed filter.")
			return
		}
		completed = &parsed
	}

	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit.")
		return
	}
	skip, err := queryInt(q.Get("skip"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid skip.")
		return
	}

	tasks, err := h.tasks.List(r.Context(), user.ID, completed, q.Get("sortBy"), limit, skip)
	if err != nil {
		writeDomainError(w, "list tasks", err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskDTOs(tasks))
}

// HandleGet returns one of the authenticated user's tasks. Someone else's
// task is a 404, same as a missing one.
// GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id.")
		return
	}

	task, err := h.tasks.Get(r.Context(), user.ID, taskID)
	if err != nil {
		writeDomainError(w, "get task", err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleUpdate applies a partial update to a task. All-or-nothing: one
// unknown field rejects the request.
// PATCH /tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id.")
		return
	}

	var fields map[string]json.RawMessage
	if err := readJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	for key := range fields {
		if !allowedTaskUpdates[key] {
			writeError(w, http.StatusBadRequest, "Invalid updates.")
			return
		}
	}

	var upd service.TaskUpdate
	if err := unmarshalField(fields, "description", &upd.Description); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := unmarshalField(fields, "completed", &upd.Completed); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	task, err := h.tasks.Update(r.Context(), user.ID, taskID, upd)
	if err != nil {
		writeDomainError(w, "update task", err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// HandleDelete removes a task and returns it.
// DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id.")
		return
	}

	task, err := h.tasks.Delete(r.Context(), user.ID, taskID)
	if err != nil {
		writeDomainError(w, "delete task", err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
