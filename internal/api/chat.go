package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/koopa0/parley/internal/chat"
	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/router"
)

// responder is the slice of the assistant the chat handler needs.
type responder interface {
	Respond(ctx context.Context, req chat.Request) (*chat.Reply, error)
	RespondStream(ctx context.Context, req chat.Request, emit func(string) error) (*chat.Reply, error)
}

type chatHandler struct {
	assistant responder
	logger    log.Logger
}

type chatRequest struct {
	Message   string   `json:"message"`
	SessionID string   `json:"session_id,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Persona   string   `json:"persona,omitempty"`
	Tools     []string `json:"tools,omitempty"`
}

func (cr chatRequest) toChat() chat.Request {
	return chat.Request{
		Message:   cr.Message,
		SessionID: cr.SessionID,
		Mode:      router.ParseMode(cr.Mode),
		Persona:   cr.Persona,
		Tools:     cr.Tools,
	}
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", h.logger)
		return
	}

	reply, err := h.assistant.Respond(r.Context(), req.toChat())
	if err != nil {
		h.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply, h.logger)
}

// stream handles POST /api/v1/chat/stream with server-sent events.
// Chunks arrive as `chunk` events, the assembled reply as `done`, and a
// failure after streaming started as `error`.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	reply, err := h.assistant.RespondStream(r.Context(), req.toChat(), func(chunk string) error {
		return writeSSE(w, flusher, "chunk", chat.StreamChunk{Text: chunk})
	})
	if err != nil {
		code, _, message := classifyChatError(err)
		if sseErr := writeSSE(w, flusher, "error", errorDetail{Code: code, Message: message}); sseErr != nil {
			h.logger.Debug("writing SSE error event", "error", sseErr)
		}
		return
	}

	if err := writeSSE(w, flusher, "done", reply); err != nil {
		h.logger.Debug("writing SSE done event", "error", err)
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding SSE payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return fmt.Errorf("writing SSE event: %w", err)
	}
	flusher.Flush()
	return nil
}

func (h *chatHandler) writeChatError(w http.ResponseWriter, err error) {
	code, status, message := classifyChatError(err)
	if status == http.StatusBadGateway {
		h.logger.Error("chat request failed", "error", err)
	}
	writeError(w, status, code, message, h.logger)
}

// classifyChatError maps pipeline errors onto the wire taxonomy:
// validation 400, content policy 422, collaborator failure 502.
func classifyChatError(err error) (code string, status int, message string) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return "invalid_request", http.StatusBadRequest, "message must not be empty"
	case errors.Is(err, filter.ErrContentPolicy):
		return "content_policy", http.StatusUnprocessableEntity,
			"the message was declined by the content policy"
	default:
		return "upstream_error", http.StatusBadGateway, "the model service failed to answer"
	}
}
