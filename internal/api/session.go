package api

import (
	"net/http"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/session"
)

type sessionHandler struct {
	store  *session.Store
	logger log.Logger
}

// list handles GET /api/v1/sessions.
func (h *sessionHandler) list(w http.ResponseWriter, _ *http.Request) {
	ids := h.store.List()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids}, h.logger)
}

// messages handles GET /api/v1/sessions/{id}/messages. Sessions are
// lazily created, so an unknown ID is an empty history, not a 404.
func (h *sessionHandler) messages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msgs := h.store.History(id)
	if msgs == nil {
		msgs = []session.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": msgs}, h.logger)
}

// clear handles DELETE /api/v1/sessions/{id}/messages.
func (h *sessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// remove handles DELETE /api/v1/sessions/{id}.
func (h *sessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	h.store.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
