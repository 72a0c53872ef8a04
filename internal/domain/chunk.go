package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Known domain labels for the category filter. Unknown values are passed
// through to the store unchanged.
const (
	DomainFood     = "food"
	DomainStay     = "stay"
	DomainNature   = "nature"
	DomainHistory  = "history"
	DomainShopping = "shopping"
	DomainLeisure  = "leisure"
)

// Query validation bounds.
const (
	MinQueryRunes = 2
	MinTopK       = 1
	MaxTopK       = 10
)

// DocumentChunk is the unit of retrieval: a child-level row joined to its
// parent document, annotated with vector distance and the derived similarity.
// Chunks are read-only projections of the corpus and are never written back.
type DocumentChunk struct {
	ChunkText     string  `json:"chunk_text"`
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	Domain        string  `json:"domain"`
	Title         string  `json:"title"`
	PlaceName     string  `json:"place_name"`
	Area          string  `json:"area"`
	SourceURL     string  `json:"source_url"`
	DocumentID    string  `json:"document_id"`
	ParentSummary string  `json:"parent_summary"`
	Distance      float64 `json:"distance"`
	Similarity    float64 `json:"similarity"`
}

// questionMarker separates the denormalized parent summary from the QA pair
// in the rendered text form.
const questionMarker = "質問:"

// RenderedText composes the string surfaced to language-model consumers:
// parent summary, source question, and source answer.
func (c *DocumentChunk) RenderedText() string {
	summary := c.ParentSummary
	if summary == "" {
		summary = "(要約なし)"
	}
	return fmt.Sprintf("\n親ドキュメント要約:\n%s\n\n質問:\n%s\n\n回答:\n%s\n", summary, c.Question, c.Answer)
}

// StripParentSummary discards everything before the question marker in a
// rendered chunk text. Text without the marker is returned unchanged.
// Idempotent: stripping twice equals stripping once.
func StripParentSummary(text string) string {
	if i := strings.Index(text, questionMarker); i >= 0 {
		return text[i:]
	}
	return text
}

// DedupKey identifies a logical document across query variants. Falls back to
// a content hash when the chunk carries no document ID, so dedup behavior is
// stable across process restarts.
func (c *DocumentChunk) DedupKey() string {
	if c.DocumentID != "" {
		return c.DocumentID
	}
	h := sha256.Sum256([]byte(c.RenderedText()))
	return "text:" + hex.EncodeToString(h[:])
}

// ValidateQuery checks that a query has at least MinQueryRunes characters
// after trimming.
func ValidateQuery(query string) error {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryRunes {
		return fmt.Errorf("%w: need at least %d characters", ErrInvalidQuery, MinQueryRunes)
	}
	return nil
}

// ValidateTopK checks that topK is within [MinTopK, MaxTopK].
func ValidateTopK(topK int) error {
	if topK < MinTopK || topK > MaxTopK {
		return fmt.Errorf("%w: must be between %d and %d, got %d", ErrInvalidTopK, MinTopK, MaxTopK, topK)
	}
	return nil
}
