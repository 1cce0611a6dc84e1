package api

import (
	"net/http"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
)

// ListTaskLists handles GET /api/tasklists.
func (h *Handler) ListTaskLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.db.TaskLists()
	if err != nil {
		writeError(w, "list task lists", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// CreateTaskList handles POST /api/tasklists.
func (h *Handler) CreateTaskList(w http.ResponseWriter, r *http.Request) {
	var req TaskListRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.db.AddTaskList(req.Name)
	if err != nil {
		writeError(w, "create task list", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	writeJSON(w, http.StatusCreated, models.TaskList{ID: id, Name: req.Name})
}

// RenameTaskList handles PUT /api/tasklists/{id}.
func (h *Handler) RenameTaskList(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req TaskListRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.RenameTaskList(id, req.Name); err != nil {
		writeError(w, "rename task list", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTaskList handles DELETE /api/tasklists/{id}. The last remaining
// list is refused with 409.
func (h *Handler) DeleteTaskList(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.db.DeleteTaskList(id); err != nil {
		writeError(w, "delete task list", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks handles GET /api/tasklists/{id}/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	tasks, err := h.db.Tasks(id)
	if err != nil {
		writeError(w, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// AddTask handles POST /api/tasklists/{id}/tasks.
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req AddTaskRequest
	if !decode(w, r, &req) {
		return
	}
	taskID, err := h.db.AddTask(id, req.Content)
	if err != nil {
		writeError(w, "add task", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": taskID})
}

// ReorderTasks handles PUT /api/tasklists/{id}/tasks/order.
func (h *Handler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req ReorderRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.ReorderTasks(id, req.IDs); err != nil {
		writeError(w, "reorder tasks", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTask handles PATCH /api/tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.UpdateTask(id, req.Content, req.Completed); err != nil {
		writeError(w, "update task", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.db.DeleteTask(id); err != nil {
		writeError(w, "delete task", err)
		return
	}
	h.publish(sse.EventTaskChanged)
	w.WriteHeader(http.StatusNoContent)
}
