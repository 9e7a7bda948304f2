package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// UpsertDocumentParams carries the arguments for UpsertDocument.
type UpsertDocumentParams struct {
	ID        string
	Content   string
	SourceURL string
	Metadata  []byte
	Embedding *pgvector.Vector
}

// SearchDocumentsParams carries the arguments for SearchDocuments.
type SearchDocumentsParams struct {
	QueryEmbedding *pgvector.Vector
	ResultLimit    int32
}

// SearchDocumentsRow is one vector-search result row.
type SearchDocumentsRow struct {
	ID         string
	Content    string
	SourceURL  string
	Metadata   []byte
	Similarity float32
	CreatedAt  time.Time
}

// Queries is the pgx-backed Querier implementation. All statements are
// parameterized; metadata is always produced by json.Marshal, never raw input.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a Queries over the given pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const upsertDocumentSQL = `
INSERT INTO documents (id, content, source_url, metadata, embedding)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    source_url = EXCLUDED.source_url,
    metadata = EXCLUDED.metadata,
    embedding = EXCLUDED.embedding`

// UpsertDocument inserts or replaces a document.
func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.pool.Exec(ctx, upsertDocumentSQL,
		arg.ID, arg.Content, arg.SourceURL, arg.Metadata, arg.Embedding)
	if err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}
	return nil
}

const searchDocumentsSQL = `
SELECT id, content, source_url, metadata,
       1 - (embedding <=> $1) AS similarity,
       created_at
FROM documents
ORDER BY embedding <=> $1
LIMIT $2`

// SearchDocuments returns the nearest documents by cosine distance,
// most similar first.
func (q *Queries) SearchDocuments(ctx context.Context, arg SearchDocumentsParams) ([]SearchDocumentsRow, error) {
	rows, err := q.pool.Query(ctx, searchDocumentsSQL, arg.QueryEmbedding, arg.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("query search: %w", err)
	}
	defer rows.Close()

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SearchDocumentsRow, error) {
		var r SearchDocumentsRow
		err := row.Scan(&r.ID, &r.Content, &r.SourceURL, &r.Metadata, &r.Similarity, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search rows: %w", err)
	}
	return results, nil
}

const countDocumentsSQL = `SELECT count(*) FROM documents`

// CountDocuments returns the corpus size.
func (q *Queries) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, countDocumentsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	return n, nil
}

const deleteDocumentSQL = `DELETE FROM documents WHERE id = $1`

// DeleteDocument removes a document by ID. Deleting a missing ID is a no-op.
func (q *Queries) DeleteDocument(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, deleteDocumentSQL, id)
	if err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	return nil
}
