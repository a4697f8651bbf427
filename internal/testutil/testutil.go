// Package testutil provides shared test infrastructure: a disposable
// pgvector Postgres container, a deterministic embedder, and a scripted
// model client. Nothing here talks to a real AI service.
package testutil
