package variant

import (
	"fmt"
	"strings"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

// Generator deterministically expands one query into a bounded, deduplicated,
// ordered list of query-text variants. Pure: no side effects, fully determined
// by (query, userVariants, config).
type Generator struct {
	cfg Config
}

// NewGenerator creates a variant generator with the given configuration.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: normalize(cfg)}
}

// Generate returns the variant list for a query: the trimmed base query first,
// then a punctuation-stripped form, suffix-augmented forms, and caller-supplied
// variants, deduplicated in first-seen order and capped at MaxVariations.
func (g *Generator) Generate(query string, userVariants []string) ([]string, error) {
	base := strings.TrimSpace(query)
	if base == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}

	candidates := []string{base}

	if stripped := strings.TrimSpace(g.stripPunctuation(base)); stripped != "" && stripped != base {
		candidates = append(candidates, stripped)
	}

	for _, suffix := range g.cfg.Suffixes {
		trimmed := strings.TrimSpace(suffix)
		if trimmed == "" {
			continue
		}
		// A suffix carrying its own leading space (ASCII or ideographic)
		// glues directly onto the base query.
		if strings.HasPrefix(suffix, " ") || strings.HasPrefix(suffix, "　") {
			candidates = append(candidates, base+suffix)
		} else {
			candidates = append(candidates, base+" "+trimmed)
		}
	}

	for _, uv := range userVariants {
		if text := strings.TrimSpace(uv); text != "" {
			candidates = append(candidates, text)
		}
	}

	deduped := dedupe(candidates)
	if len(deduped) > g.cfg.MaxVariations {
		deduped = deduped[:g.cfg.MaxVariations]
	}
	return deduped, nil
}

func (g *Generator) stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(g.cfg.PunctuationChars, r) {
			return -1
		}
		return r
	}, text)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
