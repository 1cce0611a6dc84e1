package api

import (
	"net/http"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/sse"
)

// Tree handles GET /api/items/tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.db.Tree()
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Roots: roots})
}

// FullTree handles GET /api/items/tree/full. Every node carries content;
// export collaborators are the only consumers.
func (h *Handler) FullTree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.db.FullTree()
	if err != nil {
		writeError(w, "full tree", err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Roots: roots})
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.db.Notes()
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if notes == nil {
		notes = []models.NoteListItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// GetItem handles GET /api/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	it, err := h.db.GetDetails(id)
	if err != nil {
		writeError(w, "get item", err)
		return
	}
	if it == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CreateItem handles POST /api/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		id  int64
		err error
	)
	if req.Kind == string(models.KindFolder) {
		id, err = h.db.CreateFolder(req.ParentID, req.Title)
	} else {
		id, err = h.db.CreateNote(req.ParentID, req.Title, req.Content)
	}
	if err != nil {
		writeError(w, "create item", err)
		return
	}
	h.publishItem(sse.EventItemCreated, id)
	it, err := h.db.GetDetails(id)
	if err != nil {
		writeError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// UpdateItem handles PUT /api/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.UpdateContent(id, req.Title, req.Content); err != nil {
		writeError(w, "update item", err)
		return
	}
	h.publishItem(sse.EventItemUpdated, id)
	it, err := h.db.GetDetails(id)
	if err != nil {
		writeError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// RenameItem handles POST /api/items/{id}/rename.
func (h *Handler) RenameItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req RenameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.Rename(id, req.Title); err != nil {
		writeError(w, "rename item", err)
		return
	}
	h.publishItem(sse.EventItemUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// MoveItem handles POST /api/items/{id}/move.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.db.Move(id, req.NewParentID); err != nil {
		writeError(w, "move item", err)
		return
	}
	h.publishItem(sse.EventItemUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// SetPinned handles POST /api/items/{id}/pinned.
func (h *Handler) SetPinned(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.db.SetPinned)
}

// SetHidden handles POST /api/items/{id}/hidden.
func (h *Handler) SetHidden(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.db.SetHidden)
}

func (h *Handler) setFlag(w http.ResponseWriter, r *http.Request, set func(int64, bool) error) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	var req FlagRequest
	if !decode(w, r, &req) {
		return
	}
	if err := set(id, req.Value); err != nil {
		writeError(w, "set item flag", err)
		return
	}
	h.publishItem(sse.EventItemUpdated, id)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteItem handles DELETE /api/items/{id}. Folders cascade; deleting a
// missing id still returns 204.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid id"))
		return
	}
	if err := h.db.Delete(id); err != nil {
		writeError(w, "delete item", err)
		return
	}
	h.publishItem(sse.EventItemDeleted, id)
	w.WriteHeader(http.StatusNoContent)
}
