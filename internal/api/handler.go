package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/backup"
	"github.com/starford/dagaz/internal/search"
	"github.com/starford/dagaz/internal/security"
	"github.com/starford/dagaz/internal/session"
	"github.com/starford/dagaz/internal/settings"
	"github.com/starford/dagaz/internal/sse"
	"github.com/starford/dagaz/internal/store"
)

// Handler holds the API route handlers and their collaborators.
type Handler struct {
	db       *store.DB
	ix       *search.Index
	gate     *security.Gate
	coord    *session.Coordinator
	backups  *backup.Manager
	broker   *sse.Broker
	settings *settings.File

	// restore replaces the storage artifact from a snapshot. Wired by the
	// entrypoint because it has to close and reopen the store around the
	// copy. Nil disables the restore route.
	restore func(name string) error
}

// NewHandler creates a Handler. broker, settingsFile and restore may be nil.
func NewHandler(
	db *store.DB,
	ix *search.Index,
	gate *security.Gate,
	coord *session.Coordinator,
	backups *backup.Manager,
	broker *sse.Broker,
	settingsFile *settings.File,
	restore func(name string) error,
) *Handler {
	return &Handler{
		db:       db,
		ix:       ix,
		gate:     gate,
		coord:    coord,
		backups:  backups,
		broker:   broker,
		settings: settingsFile,
		restore:  restore,
	}
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// publishItem emits an item change event when a broker is attached.
func (h *Handler) publishItem(kind string, id int64) {
	if h.broker != nil {
		h.broker.PublishItemEvent(kind, id)
	}
}

// publish emits a bare event when a broker is attached.
func (h *Handler) publish(eventType string) {
	if h.broker != nil {
		h.broker.Publish(sse.Event{Type: eventType, Data: map[string]string{}})
	}
}
