package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Items.
	r.Get("/items/tree", h.Tree)
	r.Get("/items/tree/full", h.FullTree)
	r.Post("/items", h.CreateItem)
	r.Get("/items/{id}", h.GetItem)
	r.Put("/items/{id}", h.UpdateItem)
	r.Delete("/items/{id}", h.DeleteItem)
	r.Post("/items/{id}/rename", h.RenameItem)
	r.Post("/items/{id}/move", h.MoveItem)
	r.Post("/items/{id}/pinned", h.SetPinned)
	r.Post("/items/{id}/hidden", h.SetHidden)
	r.Get("/notes", h.ListNotes)

	// Tasks.
	r.Get("/tasklists", h.ListTaskLists)
	r.Post("/tasklists", h.CreateTaskList)
	r.Put("/tasklists/{id}", h.RenameTaskList)
	r.Delete("/tasklists/{id}", h.DeleteTaskList)
	r.Get("/tasklists/{id}/tasks", h.ListTasks)
	r.Post("/tasklists/{id}/tasks", h.AddTask)
	r.Put("/tasklists/{id}/tasks/order", h.ReorderTasks)
	r.Patch("/tasks/{id}", h.UpdateTask)
	r.Delete("/tasks/{id}", h.DeleteTask)

	// Search and tags.
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	r.Delete("/tags/{tag}", h.RemoveTag)

	// Security gate.
	r.Get("/gate", h.GateState)
	r.Post("/gate/unlock", h.Unlock)
	r.Post("/gate/lock", h.Lock)
	r.Post("/gate/recovery/begin", h.BeginRecovery)
	r.Post("/gate/recovery/cancel", h.CancelRecovery)
	r.Post("/gate/recovery/answers", h.CheckAnswers)
	r.Put("/gate/credentials", h.SetCredentials)
	r.Post("/gate/reset", h.ScheduleReset)

	// Backups.
	r.Get("/backups", h.ListSnapshots)
	r.Post("/backups", h.CreateSnapshot)
	r.Post("/backups/{name}/restore", h.RestoreSnapshot)

	// Session surfaces.
	r.Post("/surfaces/switch", h.SwitchSurface)
	r.Post("/surfaces/{surface}/open", h.OpenSurface)
	r.Post("/surfaces/{surface}/edit", h.EditSurface)
	r.Post("/surfaces/{surface}/save", h.SaveSurface)
	r.Post("/surfaces/{surface}/close", h.CloseSurface)
	r.Post("/surfaces/{surface}/immersive/enter", h.EnterImmersive)
	r.Post("/surfaces/{surface}/immersive/return", h.ReturnImmersive)

	// Settings.
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
