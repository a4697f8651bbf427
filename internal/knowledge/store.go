package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/koopa0/parley/internal/language"
	"github.com/koopa0/parley/internal/log"
)

// Index is the pgvector-backed retrieval store. Safe for concurrent use;
// each ingest runs in its own transaction and searches are plain reads.
type Index struct {
	pool       *pgxpool.Pool
	embedder   Embedder
	translator Translator
	chunker    Chunker
	logger     log.Logger
}

// NewIndex creates the retrieval index. translator may be nil when all
// ingested documents are already in the pivot language.
func NewIndex(pool *pgxpool.Pool, embedder Embedder, translator Translator, chunker Chunker, logger log.Logger) (*Index, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Index{
		pool:       pool,
		embedder:   embedder,
		translator: translator,
		chunker:    chunker,
		logger:     logger,
	}, nil
}

// Ingest stores a document under name, replacing any previous document
// with the same name. Non-pivot text is translated first; translation
// failure aborts the ingest since a half-translated index is worse than
// none. Returns the number of chunks written.
//
// The document row and all its chunks are written in one transaction:
// searches see either the complete old document or the complete new one.
func (ix *Index) Ingest(ctx context.Context, name, text, lang string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: document name is empty", ErrEmptyDocument)
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyDocument
	}
	if lang == "" {
		lang = language.Detect(text)
	}

	if lang != language.Pivot && ix.translator != nil {
		translated, err := ix.translator.Translate(ctx, text, language.Pivot)
		if err != nil {
			return 0, fmt.Errorf("translating document %q: %w", name, err)
		}
		text = translated
	}

	chunks := ix.chunker.SplitSource(name, text)
	if len(chunks) == 0 {
		return 0, ErrEmptyDocument
	}

	vectors, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding document %q: %w", name, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	tx, err := ix.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning ingest transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var docID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO knowledge_documents (name, language)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET language = EXCLUDED.language, created_at = now()
		RETURNING id`,
		name, lang,
	).Scan(&docID)
	if err != nil {
		return 0, fmt.Errorf("upserting document %q: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_chunks WHERE document_id = $1`, docID); err != nil {
		return 0, fmt.Errorf("clearing old chunks of %q: %w", name, err)
	}

	batch := &pgx.Batch{}
	for i, chunk := range chunks {
		batch.Queue(`
			INSERT INTO knowledge_chunks (document_id, content, embedding)
			VALUES ($1, $2, $3)`,
			docID, chunk, pgvector.NewVector(vectors[i]),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("inserting chunks of %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing ingest of %q: %w", name, err)
	}

	ix.logger.Info("document ingested", "name", name, "language", lang, "chunks", len(chunks))
	return len(chunks), nil
}

// Search embeds the query and returns the closest chunks by cosine
// distance, highest score first, ties by ascending chunk ID. An empty
// index yields an empty slice and a nil error.
func (ix *Index) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	cfg := buildSearchConfig(opts)

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timed out: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	qv := pgvector.NewVector(vectors[0])

	sql := `
		SELECT c.id, d.name, c.content, 1 - (c.embedding <=> $1) AS score
		FROM knowledge_chunks c
		JOIN knowledge_documents d ON d.id = c.document_id`
	args := []any{qv}
	if cfg.source != "" {
		sql += ` WHERE d.name = $2`
		args = append(args, cfg.source)
	}
	sql += fmt.Sprintf(` ORDER BY c.embedding <=> $1, c.id LIMIT %d`, cfg.topK)

	rows, err := ix.pool.Query(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timed out: %w", err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	results := make([]Result, 0, cfg.topK)
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Source, &r.Content, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	ix.logger.Debug("search completed", "results", len(results), "top_k", cfg.topK)
	return results, nil
}

// Documents lists stored documents with their chunk counts, newest first.
func (ix *Index) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := ix.pool.Query(ctx, `
		SELECT d.name, d.language, count(c.id), d.created_at
		FROM knowledge_documents d
		LEFT JOIN knowledge_chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.name`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var (
			info      DocumentInfo
			createdAt time.Time
		)
		if err := rows.Scan(&info.Name, &info.Language, &info.Chunks, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		info.CreatedAt = createdAt
		docs = append(docs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes one document and its chunks. Deleting a missing
// document is not an error.
func (ix *Index) DeleteDocument(ctx context.Context, name string) error {
	tag, err := ix.pool.Exec(ctx, `DELETE FROM knowledge_documents WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting document %q: %w", name, err)
	}
	ix.logger.Info("document deleted", "name", name, "existed", tag.RowsAffected() > 0)
	return nil
}

// Clear removes every document and chunk.
func (ix *Index) Clear(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, `DELETE FROM knowledge_documents`); err != nil {
		return fmt.Errorf("clearing knowledge index: %w", err)
	}
	ix.logger.Info("knowledge index cleared")
	return nil
}
