package chunk

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

// querier is the consumer interface over the connection pool (pgxpool or pgxmock).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repo reads the tourism chunk corpus: child rows joined to their parent
// documents, ranked by vector distance. Read-only; nothing is written back.
type Repo struct {
	db querier
}

// New creates a chunk repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

// baseQuery selects the fixed column projection consumed by scanRow. Ordering
// and limiting happen in the store to bound I/O.
const baseQuery = `
SELECT
    c.chunk_text,
    COALESCE(c.question, ''),
    COALESCE(c.answer, ''),
    c.domain,
    COALESCE(c.title, ''),
    COALESCE(c.place_name, ''),
    COALESCE(c.area, ''),
    COALESCE(p.source_url, ''),
    COALESCE(p.document_id, ''),
    COALESCE(p.summary_text, ''),
    c.embedding <=> $1 AS distance
FROM tourism_child c
JOIN tourism_parent p ON c.parent_id = p.id
WHERE 1=1`

// SearchByVector returns up to topK chunks ordered by ascending cosine
// distance to the query embedding. domainFilter applies an equality filter;
// area applies a case-insensitive substring filter across area, place name,
// and title.
func (r *Repo) SearchByVector(
	ctx context.Context, embedding []float32, topK int, domainFilter, area string,
) ([]domain.DocumentChunk, error) {
	sql, args := buildQuery(embedding, topK, domainFilter, area)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		c, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunk rows: %w", err)
	}

	return chunks, nil
}

// buildQuery assembles the filtered similarity query with positional args.
func buildQuery(embedding []float32, topK int, domainFilter, area string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(baseQuery)

	args := []any{pgvector.NewVector(embedding)}

	if domainFilter != "" {
		args = append(args, domainFilter)
		fmt.Fprintf(&sb, " AND c.domain = $%d", len(args))
	}
	if area != "" {
		args = append(args, "%"+area+"%")
		n := len(args)
		fmt.Fprintf(&sb, " AND (c.area ILIKE $%d OR c.place_name ILIKE $%d OR c.title ILIKE $%d)", n, n, n)
	}

	args = append(args, topK)
	fmt.Fprintf(&sb, " ORDER BY distance LIMIT $%d", len(args))

	return sb.String(), args
}

// scanRow projects one result row into a DocumentChunk. The named fields keep
// column-order drift a compile-visible problem instead of silent misassignment.
func scanRow(rows pgx.Rows) (domain.DocumentChunk, error) {
	var c domain.DocumentChunk
	err := rows.Scan(
		&c.ChunkText,
		&c.Question,
		&c.Answer,
		&c.Domain,
		&c.Title,
		&c.PlaceName,
		&c.Area,
		&c.SourceURL,
		&c.DocumentID,
		&c.ParentSummary,
		&c.Distance,
	)
	if err != nil {
		return domain.DocumentChunk{}, err
	}
	c.Similarity = 1 - c.Distance
	return c, nil
}
