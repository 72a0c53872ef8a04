package variant

import (
	"errors"
	"strings"
	"testing"

	"github.com/kanko-labs/tabisearch/internal/domain"
)

func testConfig() Config {
	return Config{
		PunctuationChars: DefaultPunctuation,
		Suffixes:         []string{"おすすめ", "観光"},
		MaxVariations:    6,
	}
}

func TestGenerate_BaseQueryFirst(t *testing.T) {
	g := NewGenerator(testConfig())

	variants, err := g.Generate("  東京 ラーメン  ", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(variants) == 0 {
		t.Fatal("expected variants")
	}
	if variants[0] != "東京 ラーメン" {
		t.Errorf("first variant = %q, want the trimmed base query", variants[0])
	}
}

func TestGenerate_EmptyQuery(t *testing.T) {
	g := NewGenerator(testConfig())

	for _, q := range []string{"", "   "} {
		if _, err := g.Generate(q, nil); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("Generate(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestGenerate_PunctuationStrippedForm(t *testing.T) {
	g := NewGenerator(testConfig())

	variants, err := g.Generate("東京、ラーメン！", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	found := false
	for _, v := range variants {
		if v == "東京ラーメン" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected punctuation-stripped form in %v", variants)
	}
}

func TestGenerate_NoStrippedFormWhenUnchanged(t *testing.T) {
	g := NewGenerator(testConfig())

	variants, err := g.Generate("東京 ラーメン", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	count := 0
	for _, v := range variants {
		if v == "東京 ラーメン" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("base query should appear exactly once, got %d in %v", count, variants)
	}
}

func TestGenerate_SuffixesUseOriginalBase(t *testing.T) {
	g := NewGenerator(testConfig())

	variants, err := g.Generate("東京、ラーメン", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Suffix forms attach to the trimmed original, not the stripped form.
	want := "東京、ラーメン おすすめ"
	found := false
	for _, v := range variants {
		if v == want {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %q in %v", want, variants)
	}
}

func TestGenerate_LeadingSpaceSuffixGluesDirectly(t *testing.T) {
	cfg := testConfig()
	cfg.Suffixes = []string{" の名所"}
	g := NewGenerator(cfg)

	variants, err := g.Generate("京都", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	found := false
	for _, v := range variants {
		if v == "京都 の名所" {
			found = true
		}
	}
	if !found {
		t.Errorf("suffix with leading space should glue onto the base, got %v", variants)
	}
}

func TestGenerate_UserVariantsDeduplicated(t *testing.T) {
	g := NewGenerator(testConfig())

	variants, err := g.Generate("東京 ラーメン", []string{"東京 ラーメン", "  ", "渋谷 ラーメン"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	seen := make(map[string]int)
	for _, v := range variants {
		seen[v]++
		if seen[v] > 1 {
			t.Errorf("duplicate variant %q in %v", v, variants)
		}
	}
	if seen["渋谷 ラーメン"] != 1 {
		t.Errorf("expected user variant in %v", variants)
	}
	if seen[""] > 0 {
		t.Errorf("blank user variant should be dropped: %v", variants)
	}
}

func TestGenerate_CapsAtMaxVariations(t *testing.T) {
	cfg := testConfig()
	cfg.MaxVariations = 3
	g := NewGenerator(cfg)

	many := []string{"v1", "v2", "v3", "v4", "v5"}
	variants, err := g.Generate("東京 ラーメン", many)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(variants) > 3 {
		t.Errorf("got %d variants, want at most 3: %v", len(variants), variants)
	}
	if variants[0] != "東京 ラーメン" {
		t.Errorf("cap must preserve the base query first, got %v", variants)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(testConfig())

	a, err := g.Generate("大阪 たこ焼き", []string{"道頓堀"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := g.Generate("大阪 たこ焼き", []string{"道頓堀"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Errorf("generation is not deterministic:\n%v\n%v", a, b)
	}
}
