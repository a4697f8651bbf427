package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/koopa0/parley/internal/filter"
	"github.com/koopa0/parley/internal/knowledge"
	"github.com/koopa0/parley/internal/log"
)

// knowledgeIndex is the slice of the knowledge store the handler needs.
type knowledgeIndex interface {
	Ingest(ctx context.Context, name, text, lang string) (int, error)
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
	Documents(ctx context.Context) ([]knowledge.DocumentInfo, error)
	DeleteDocument(ctx context.Context, name string) error
}

// urlIngester fetches a page and indexes its readable text.
type urlIngester interface {
	IngestURL(ctx context.Context, rawURL string) (string, int, error)
}

// uploadSaver persists raw uploads after validation.
type uploadSaver interface {
	SaveUpload(name string, data []byte) (string, error)
}

type knowledgeHandler struct {
	index   knowledgeIndex
	crawler urlIngester
	uploads uploadSaver
	logger  log.Logger
}

// available guards every knowledge route; without Postgres the feature
// is off and the API says so rather than 500ing.
func (h *knowledgeHandler) available(w http.ResponseWriter) bool {
	if h.index == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge_disabled",
			"the knowledge base requires a configured database", h.logger)
		return false
	}
	return true
}

type ingestRequest struct {
	Name     string `json:"name"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type ingestResponse struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// create handles POST /api/v1/knowledge/documents, accepting either a
// JSON body or a multipart file upload.
func (h *knowledgeHandler) create(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.createFromUpload(w, r)
		return
	}

	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", h.logger)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "document name is required", h.logger)
		return
	}

	chunks, err := h.index.Ingest(r.Context(), req.Name, req.Text, req.Language)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Name: req.Name, Chunks: chunks}, h.logger)
}

func (h *knowledgeHandler) createFromUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, filter.MaxUploadBytes+maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "multipart field \"file\" is required", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, filter.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "reading upload failed", h.logger)
		return
	}

	name := filepath.Base(header.Filename)
	if h.uploads != nil {
		if _, err := h.uploads.SaveUpload(name, data); err != nil {
			h.writeUploadError(w, err)
			return
		}
	} else if err := filter.ValidateUpload(name, data); err != nil {
		h.writeUploadError(w, err)
		return
	}

	chunks, err := h.index.Ingest(r.Context(), name, string(data), r.FormValue("language"))
	if err != nil {
		h.writeIngestError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Name: name, Chunks: chunks}, h.logger)
}

type ingestURLRequest struct {
	URL string `json:"url"`
}

// createFromURL handles POST /api/v1/knowledge/documents/url.
func (h *knowledgeHandler) createFromURL(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	if h.crawler == nil {
		writeError(w, http.StatusServiceUnavailable, "knowledge_disabled",
			"URL ingestion is not configured", h.logger)
		return
	}

	var req ingestURLRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "a url field is required", h.logger)
		return
	}

	name, chunks, err := h.crawler.IngestURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn("url ingestion failed", "url", req.URL, "error", err)
		writeError(w, http.StatusBadGateway, "ingest_failed", "fetching or indexing the page failed", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Name: name, Chunks: chunks}, h.logger)
}

// list handles GET /api/v1/knowledge/documents.
func (h *knowledgeHandler) list(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	docs, err := h.index.Documents(r.Context())
	if err != nil {
		h.logger.Error("listing documents", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "listing documents failed", h.logger)
		return
	}
	if docs == nil {
		docs = []knowledge.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs}, h.logger)
}

// remove handles DELETE /api/v1/knowledge/documents/{name}.
func (h *knowledgeHandler) remove(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	name := r.PathValue("name")
	if err := h.index.DeleteDocument(r.Context(), name); err != nil {
		h.logger.Error("deleting document", "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "deleting the document failed", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// search handles GET /api/v1/knowledge/search?q=&k=.
func (h *knowledgeHandler) search(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query parameter q is required", h.logger)
		return
	}

	opts := []knowledge.SearchOption{}
	if k := r.URL.Query().Get("k"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "k must be a positive integer", h.logger)
			return
		}
		opts = append(opts, knowledge.WithTopK(n))
	}

	results, err := h.index.Search(r.Context(), query, opts...)
	if err != nil {
		h.logger.Error("knowledge search", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "search failed", h.logger)
		return
	}
	if results == nil {
		results = []knowledge.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results}, h.logger)
}

func (h *knowledgeHandler) writeIngestError(w http.ResponseWriter, err error) {
	if errors.Is(err, knowledge.ErrEmptyDocument) {
		writeError(w, http.StatusBadRequest, "invalid_request", "document text must not be empty", h.logger)
		return
	}
	h.logger.Error("document ingestion failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "indexing the document failed", h.logger)
}

func (h *knowledgeHandler) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, filter.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "the upload exceeds the size limit", h.logger)
	case errors.Is(err, filter.ErrUploadExtension),
		errors.Is(err, filter.ErrUploadBinary),
		errors.Is(err, filter.ErrUploadEmptyName),
		errors.Is(err, filter.ErrUploadEmptyBody):
		writeError(w, http.StatusBadRequest, "invalid_upload", err.Error(), h.logger)
	default:
		h.logger.Error("saving upload", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "saving the upload failed", h.logger)
	}
}
