package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
)

// ListSnapshots handles GET /api/backups.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.backups.List()
	if err != nil {
		writeError(w, "list snapshots", err)
		return
	}
	if snaps == nil {
		snaps = []models.Snapshot{}
	}
	writeJSON(w, http.StatusOK, SnapshotsResponse{Snapshots: snaps})
}

// CreateSnapshot handles POST /api/backups. Unlike the scheduler, a manual
// snapshot surfaces its failure to the caller.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backups.Create()
	if err != nil {
		writeError(w, "create snapshot", err)
		return
	}
	if snap == nil {
		// No artifact on disk yet, nothing to copy.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// RestoreSnapshot handles POST /api/backups/{name}/restore. The entrypoint
// wires the restore func to save and close every surface, close the store,
// copy the snapshot into place and reopen; in-memory UI state is stale
// afterwards, which storage.replaced tells the surfaces.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.restore == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("restore not available"))
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.restore(name); err != nil {
		writeError(w, "restore snapshot", err)
		return
	}
	h.publish(sse.EventStorageReplaced)
	w.WriteHeader(http.StatusAccepted)
}
