package search

import (
	"context"
	"strings"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

type mockRepo struct {
	calls     int
	embedding []float32
	topK      int
	domain    string
	area      string
	chunks    []domain.DocumentChunk
	err       error
}

func (m *mockRepo) SearchByVector(
	_ context.Context, embedding []float32, topK int, domainFilter, area string,
) ([]domain.DocumentChunk, error) {
	m.calls++
	m.embedding = embedding
	m.topK = topK
	m.domain = domainFilter
	m.area = area
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

type mockEmbedder struct {
	calls     int
	lastText  string
	embedding []float32
	err       error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.embedding}, nil
}

// mockCache records keys and serves canned hits.
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
