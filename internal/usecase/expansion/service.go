package expansion

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kanko-labs/tabisearch/internal/domain"
	"github.com/kanko-labs/tabisearch/internal/metrics"
)

// cacheNamespace scopes expanded search entries in the result cache.
const cacheNamespace = "expand"

// wildcard marks an absent filter inside a cache key.
const wildcard = "*"

// Searcher is the consumer interface over the single-variant search engine.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, domainFilter, area string) ([]domain.DocumentChunk, error)
}

// VariantSource produces the query-text variants for one caller query.
type VariantSource interface {
	Generate(query string, userVariants []string) ([]string, error)
}

// ResultCache is the consumer interface over the result cache.
type ResultCache interface {
	Key(namespace string, parts ...string) string
	GetChunks(ctx context.Context, key string) ([]domain.DocumentChunk, bool)
	PutChunks(ctx context.Context, key string, chunks []domain.DocumentChunk)
}

// Result carries the merged chunk list together with the per-call metrics,
// so concurrent callers never race on shared state.
type Result struct {
	Chunks  []domain.DocumentChunk
	Metrics domain.ExpansionMetrics
}

// Service fans one query out across its variants, merges results by document
// identity keeping the best similarity, and ranks the merged set.
type Service struct {
	search   Searcher
	variants VariantSource
	cache    ResultCache
	logger   *zap.Logger

	mu   sync.Mutex
	last *domain.ExpansionMetrics
}

// New creates an expansion coordinator.
func New(search Searcher, variants VariantSource, cache ResultCache, logger *zap.Logger) *Service {
	return &Service{search: search, variants: variants, cache: cache, logger: logger}
}

// SearchExpanded searches all variants sequentially on the calling goroutine.
// Individual variant failures degrade recall instead of failing the call: if
// every variant fails the result is empty, not an error.
func (s *Service) SearchExpanded(
	ctx context.Context, query string, topK int, domainFilter, area string, userVariants []string,
) (Result, error) {
	return s.searchExpanded(ctx, query, topK, domainFilter, area, userVariants, false)
}

// SearchExpandedParallel has identical observable semantics to SearchExpanded
// but dispatches all variant searches concurrently and awaits them together.
// Fan-out width equals the variant count, which is bounded by the generator's
// max_variations, so no separate admission control is needed.
func (s *Service) SearchExpandedParallel(
	ctx context.Context, query string, topK int, domainFilter, area string, userVariants []string,
) (Result, error) {
	return s.searchExpanded(ctx, query, topK, domainFilter, area, userVariants, true)
}

// LastMetrics returns the metrics of the most recent expansion call.
//
// Deprecated: the shared slot is overwritten by every call and is unsafe for
// concurrent callers sharing one service instance. Use the Metrics field of
// the Result returned by the call itself.
func (s *Service) LastMetrics() *domain.ExpansionMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) searchExpanded(
	ctx context.Context, query string, topK int, domainFilter, area string, userVariants []string,
	parallel bool,
) (Result, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return Result{}, err
	}
	if err := domain.ValidateTopK(topK); err != nil {
		return Result{}, err
	}

	variants, err := s.variants.Generate(query, userVariants)
	if err != nil {
		return Result{}, err
	}

	mode := "expand_seq"
	if parallel {
		mode = "expand_par"
	}

	key, keyOK := s.cacheKey(variants, topK, domainFilter, area)
	if keyOK {
		if chunks, ok := s.cache.GetChunks(ctx, key); ok {
			m := domain.ExpansionMetrics{
				Variants:  variants,
				Retrieved: len(chunks),
				CacheHit:  true,
			}
			s.storeLast(m)
			metrics.SearchRequestsTotal.WithLabelValues(mode, "success").Inc()
			return Result{Chunks: chunks, Metrics: m}, nil
		}
	}

	start := time.Now()

	var perVariant [][]domain.DocumentChunk
	var failures int
	if parallel {
		perVariant, failures = s.fanOutParallel(ctx, variants, topK, domainFilter, area)
	} else {
		perVariant, failures = s.fanOutSequential(ctx, variants, topK, domainFilter, area)
	}

	merged := mergeBest(perVariant)
	rank(merged)
	if len(merged) > topK {
		merged = merged[:topK]
	}

	m := domain.ExpansionMetrics{
		Variants:     variants,
		SuccessCount: len(variants) - failures,
		FailureCount: failures,
		Retrieved:    len(merged),
		DurationMS:   time.Since(start).Milliseconds(),
	}

	if keyOK {
		// Cache exactly what is returned (post-truncation).
		s.cache.PutChunks(ctx, key, merged)
	}
	s.storeLast(m)

	metrics.SearchRequestsTotal.WithLabelValues(mode, "success").Inc()
	metrics.SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	s.logger.Info("Expanded search completed",
		zap.Strings("variants", variants),
		zap.Int("top_k", topK),
		zap.Int("success_count", m.SuccessCount),
		zap.Int("failure_count", m.FailureCount),
		zap.Int("retrieved", m.Retrieved),
		zap.Int64("duration_ms", m.DurationMS),
		zap.Bool("parallel", parallel),
	)

	return Result{Chunks: merged, Metrics: m}, nil
}

// fanOutSequential searches variants one at a time on the calling goroutine.
func (s *Service) fanOutSequential(
	ctx context.Context, variants []string, topK int, domainFilter, area string,
) ([][]domain.DocumentChunk, int) {
	results := make([][]domain.DocumentChunk, len(variants))
	var failures int
	for i, v := range variants {
		chunks, err := s.search.Search(ctx, v, topK, domainFilter, area)
		if err != nil {
			s.recordVariantFailure(v, err)
			failures++
			continue
		}
		metrics.ExpansionVariantsTotal.WithLabelValues("success").Inc()
		results[i] = chunks
	}
	return results, failures
}

// fanOutParallel dispatches all variant searches concurrently and awaits them
// together. Failures are captured per variant; no failure aborts the others.
// Upstream cancellation of ctx abandons in-flight searches best-effort.
func (s *Service) fanOutParallel(
	ctx context.Context, variants []string, topK int, domainFilter, area string,
) ([][]domain.DocumentChunk, int) {
	results := make([][]domain.DocumentChunk, len(variants))
	errs := make([]error, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			chunks, err := s.search.Search(gctx, v, topK, domainFilter, area)
			if err != nil {
				// Captured as a value; returning nil keeps the group alive.
				errs[i] = err
				return nil
			}
			results[i] = chunks
			return nil
		})
	}
	_ = g.Wait()

	var failures int
	for i, err := range errs {
		if err != nil {
			s.recordVariantFailure(variants[i], err)
			failures++
			continue
		}
		metrics.ExpansionVariantsTotal.WithLabelValues("success").Inc()
	}
	return results, failures
}

func (s *Service) recordVariantFailure(variant string, err error) {
	metrics.ExpansionVariantsTotal.WithLabelValues("failure").Inc()
	s.logger.Warn("Variant search failed",
		zap.String("variant", variant),
		zap.Error(err),
	)
}

// mergeBest folds per-variant result lists into one chunk per logical
// document, keeping the occurrence with the highest similarity.
func mergeBest(perVariant [][]domain.DocumentChunk) []domain.DocumentChunk {
	byKey := make(map[string]domain.DocumentChunk)
	for _, chunks := range perVariant {
		for _, c := range chunks {
			key := c.DedupKey()
			if prev, ok := byKey[key]; ok && prev.Similarity >= c.Similarity {
				continue
			}
			byKey[key] = c
		}
	}

	merged := make([]domain.DocumentChunk, 0, len(byKey))
	for _, c := range byKey {
		merged = append(merged, c)
	}
	return merged
}

// rank sorts by similarity descending with the dedup key as a deterministic
// secondary order, so repeated calls with identical input never flap.
func rank(chunks []domain.DocumentChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Similarity != chunks[j].Similarity {
			return chunks[i].Similarity > chunks[j].Similarity
		}
		return chunks[i].DedupKey() < chunks[j].DedupKey()
	})
}

// cacheKey builds the expansion cache fingerprint from the JSON-encoded
// variant list and the search parameters.
func (s *Service) cacheKey(variants []string, topK int, domainFilter, area string) (string, bool) {
	encoded, err := json.Marshal(variants)
	if err != nil {
		// Variants are plain strings; this should not happen.
		s.logger.Warn("Failed to encode variants for cache key", zap.Error(err))
		return "", false
	}
	return s.cache.Key(cacheNamespace,
		string(encoded), strconv.Itoa(topK), orWildcard(domainFilter), orWildcard(area),
	), true
}

func (s *Service) storeLast(m domain.ExpansionMetrics) {
	s.mu.Lock()
	s.last = &m
	s.mu.Unlock()
}

func orWildcard(filter string) string {
	if strings.TrimSpace(filter) == "" {
		return wildcard
	}
	return filter
}
