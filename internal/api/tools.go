package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/tools"
)

type toolsHandler struct {
	registry *tools.Registry
	logger   log.Logger
}

// list handles GET /api/v1/tools.
func (h *toolsHandler) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.registry.List()}, h.logger)
}

// invoke handles POST /api/v1/tools/{name}. The invocation result is
// returned as-is with HTTP 200 even when the tool itself reports an
// error; the taxonomy lives in the result, not the status code.
func (h *toolsHandler) invoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "reading request body failed", h.logger)
		return
	}
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}

	inv := h.registry.Invoke(r.Context(), name, json.RawMessage(payload))
	writeJSON(w, http.StatusOK, inv, h.logger)
}
