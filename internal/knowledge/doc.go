// Package knowledge implements the retrieval index: documents are split
// into overlapping chunks, embedded, and stored in Postgres with pgvector
// for cosine-distance search. Ingestion is transactional per document, so
// a concurrent search never observes a half-ingested document.
package knowledge
