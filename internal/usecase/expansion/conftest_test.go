package expansion

import (
	"context"
	"strings"
	"sync"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

// mockSearcher serves canned per-variant results and records call order.
type mockSearcher struct {
	mu      sync.Mutex
	byQuery map[string][]domain.DocumentChunk
	errs    map[string]error
	queries []string
}

func newMockSearcher() *mockSearcher {
	return &mockSearcher{
		byQuery: map[string][]domain.DocumentChunk{},
		errs:    map[string]error{},
	}
}

func (m *mockSearcher) Search(
	_ context.Context, query string, _ int, _, _ string,
) ([]domain.DocumentChunk, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	return m.byQuery[query], nil
}

func (m *mockSearcher) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// mockVariants returns a fixed variant list regardless of input.
type mockVariants struct {
	variants []string
	err      error
}

func (m *mockVariants) Generate(query string, _ []string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.variants) > 0 {
		return m.variants, nil
	}
	return []string{strings.TrimSpace(query)}, nil
}

type mockCache struct {
	hit     []domain.DocumentChunk
	hasHit  bool
	getKeys []string
	putKeys []string
	put     []domain.DocumentChunk
}

func (m *mockCache) Key(namespace string, parts ...string) string {
	return "rag:" + namespace + ":" + strings.Join(parts, "|")
}

func (m *mockCache) GetChunks(_ context.Context, key string) ([]domain.DocumentChunk, bool) {
	m.getKeys = append(m.getKeys, key)
	return m.hit, m.hasHit
}

func (m *mockCache) PutChunks(_ context.Context, key string, chunks []domain.DocumentChunk) {
	m.putKeys = append(m.putKeys, key)
	m.put = chunks
}

func chunk(id string, sim float64) domain.DocumentChunk {
	return domain.DocumentChunk{DocumentID: id, Similarity: sim, Distance: 1 - sim}
}
