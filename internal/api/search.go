package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/sse"
)

// Search handles GET /api/search?q=&tag=. Both filters are ANDed; with
// neither given, every note id comes back.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ids, err := h.ix.Search(q.Get("q"), q.Get("tag"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{IDs: ids})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.ix.AllTags()
	if err != nil {
		writeError(w, "tags", err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// RemoveTag handles DELETE /api/tags/{tag}: the token is stripped from
// every note containing it and affected titles are recomputed.
func (h *Handler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	changed, err := h.ix.RemoveTagGlobally(tag)
	if err != nil {
		writeError(w, "remove tag", err)
		return
	}
	for _, id := range changed {
		h.publishItem(sse.EventItemUpdated, id)
	}
	if changed == nil {
		changed = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed})
}
