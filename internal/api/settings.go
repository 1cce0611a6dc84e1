package api

import (
	"net/http"

	"github.com/starford/dagaz/internal/settings"
)

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("settings not available"))
		return
	}
	s, err := h.settings.Load()
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PutSettings handles PUT /api/settings. The whole document is replaced;
// the backup scheduler picks up interval and retention on its next cycle.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody("settings not available"))
		return
	}
	var s settings.Settings
	if !decode(w, r, &s) {
		return
	}
	if err := h.settings.Save(&s); err != nil {
		writeError(w, "put settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
