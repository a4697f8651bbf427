// Package api provides the JSON REST API server for Parley.
//
// The server uses Go 1.22+ ServeMux routing with a layered middleware
// stack, outermost first:
//
//	Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux so they stay fast and unauthenticated.
//
// Endpoints under /api/v1:
//
//	POST   /chat                        one chat turn, assembled reply JSON
//	POST   /chat/stream                 same input, SSE chunk/done/error events
//	POST   /flow/chat                   same pipeline in genkit wire format
//	GET    /knowledge/documents         list indexed documents
//	POST   /knowledge/documents         ingest text (JSON or multipart upload)
//	POST   /knowledge/documents/url     ingest a web page
//	DELETE /knowledge/documents/{name}  delete a document and its chunks
//	GET    /knowledge/search?q=&k=      raw retrieval results
//	GET    /tools                       registry specs
//	POST   /tools/{name}                direct tool invocation
//	GET    /sessions                    list session IDs
//	GET    /sessions/{id}/messages      session history
//	DELETE /sessions/{id}/messages      clear history
//	DELETE /sessions/{id}               delete session
//
// Errors use a uniform body: {"error":{"code":"...","message":"..."}}.
package api
