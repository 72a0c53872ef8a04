package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kanko-labs/tabisearch/internal/domain"
	"github.com/kanko-labs/tabisearch/internal/metrics"
)

// cacheNamespace scopes single-variant search entries in the result cache.
const cacheNamespace = "search"

// wildcard marks an absent filter inside a cache key.
const wildcard = "*"

// Repository is the consumer interface over the chunk store (ISP).
type Repository interface {
	SearchByVector(ctx context.Context, embedding []float32, topK int, domainFilter, area string) ([]domain.DocumentChunk, error)
}

// ResultCache is the consumer interface over the result cache.
type ResultCache interface {
	Key(namespace string, parts ...string) string
	GetChunks(ctx context.Context, key string) ([]domain.DocumentChunk, bool)
	PutChunks(ctx context.Context, key string, chunks []domain.DocumentChunk)
}

// Service executes one query variant against the vector store with optional
// metadata filters, fronted by the result cache.
type Service struct {
	repo   Repository
	embed  domain.Embedder
	cache  ResultCache
	logger *zap.Logger
}

// New creates a similarity search service.
func New(repo Repository, embed domain.Embedder, cache ResultCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, embed: embed, cache: cache, logger: logger}
}

// Search returns up to topK chunks ranked by similarity to query.
// There is no fallback path: embedding or store failures propagate as
// ErrRetrievalFailure.
func (s *Service) Search(
	ctx context.Context, query string, topK int, domainFilter, area string,
) ([]domain.DocumentChunk, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := domain.ValidateTopK(topK); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(query)

	key := s.cache.Key(cacheNamespace, trimmed, strconv.Itoa(topK), orWildcard(domainFilter), orWildcard(area))
	if chunks, ok := s.cache.GetChunks(ctx, key); ok {
		metrics.SearchRequestsTotal.WithLabelValues("single", "success").Inc()
		return chunks, nil
	}

	start := time.Now()

	emb, err := s.embed.Embed(ctx, trimmed)
	if err != nil {
		s.logSearchError("embed query failed", trimmed, topK, domainFilter, area, err)
		metrics.SearchRequestsTotal.WithLabelValues("single", "error").Inc()
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalFailure, err)
	}

	chunks, err := s.repo.SearchByVector(ctx, emb.Embedding, topK, domainFilter, area)
	if err != nil {
		s.logSearchError("chunk store search failed", trimmed, topK, domainFilter, area, err)
		metrics.SearchRequestsTotal.WithLabelValues("single", "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
	}

	s.cache.PutChunks(ctx, key, chunks)

	metrics.SearchRequestsTotal.WithLabelValues("single", "success").Inc()
	metrics.SearchDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())

	s.logger.Info("Search completed",
		zap.String("query", queryPreview(trimmed)),
		zap.Int("top_k", topK),
		zap.String("domain", domainFilter),
		zap.String("area", area),
		zap.Int("retrieved", len(chunks)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return chunks, nil
}

func (s *Service) logSearchError(msg, query string, topK int, domainFilter, area string, err error) {
	s.logger.Error(msg,
		zap.String("query", queryPreview(query)),
		zap.Int("top_k", topK),
		zap.String("domain", domainFilter),
		zap.String("area", area),
		zap.Error(err),
	)
}

// queryPreview truncates a query for log context.
func queryPreview(query string) string {
	const maxRunes = 50
	runes := []rune(query)
	if len(runes) <= maxRunes {
		return query
	}
	return string(runes[:maxRunes]) + "..."
}

func orWildcard(filter string) string {
	if filter == "" {
		return wildcard
	}
	return filter
}
