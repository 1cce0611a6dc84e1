package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/session"
)

// surfaceParam parses the {surface} route parameter.
func surfaceParam(r *http.Request) (session.Surface, bool) {
	switch chi.URLParam(r, "surface") {
	case "popup":
		return session.SurfacePopup, true
	case "window":
		return session.SurfaceWindow, true
	default:
		return "", false
	}
}

// OpenSurface handles POST /api/surfaces/{surface}/open. The outgoing
// context is saved before the token binds.
func (h *Handler) OpenSurface(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	var req SurfaceOpenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.coord.Open(surface, req.Token); err != nil {
		writeError(w, "open surface", err)
		return
	}
	content, cursor := h.coord.Buffer(surface)
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id": h.coord.Bound(surface),
		"content": content,
		"cursor":  cursor,
	})
}

// EditSurface handles POST /api/surfaces/{surface}/edit.
func (h *Handler) EditSurface(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	var req EditRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.coord.Edit(surface, req.Content, req.Cursor); err != nil {
		writeError(w, "edit surface", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveSurface handles POST /api/surfaces/{surface}/save.
func (h *Handler) SaveSurface(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	itemID, parentID, err := h.coord.SaveIfDirty(surface)
	if err != nil {
		writeError(w, "save surface", err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{ItemID: itemID, ParentID: parentID})
}

// CloseSurface handles POST /api/surfaces/{surface}/close: saves, persists
// the surface state, and unbinds.
func (h *Handler) CloseSurface(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	st, err := h.coord.Close(surface)
	if err != nil {
		writeError(w, "close surface", err)
		return
	}
	if h.settings != nil {
		s, loadErr := h.settings.Load()
		if loadErr == nil {
			s.Surfaces[string(surface)] = st
			if saveErr := h.settings.Save(s); saveErr != nil {
				writeError(w, "close surface", saveErr)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, st)
}

// SwitchSurface handles POST /api/surfaces/switch.
func (h *Handler) SwitchSurface(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.coord.Switch(session.Surface(req.From), session.Surface(req.To)); err != nil {
		writeError(w, "switch surface", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  string(h.coord.Active()),
		"item_id": h.coord.Bound(session.Surface(req.To)),
	})
}

// EnterImmersive handles POST /api/surfaces/{surface}/immersive/enter.
func (h *Handler) EnterImmersive(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	token, err := h.coord.EnterImmersive(surface)
	if err != nil {
		writeError(w, "enter immersive", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// ReturnImmersive handles POST /api/surfaces/{surface}/immersive/return.
// Token 0 starts a new, unsaved note.
func (h *Handler) ReturnImmersive(w http.ResponseWriter, r *http.Request) {
	surface, ok := surfaceParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unknown surface"))
		return
	}
	var req SurfaceOpenRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.coord.ReturnFromImmersive(surface, req.Token); err != nil {
		writeError(w, "return immersive", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"item_id": h.coord.Bound(surface)})
}
