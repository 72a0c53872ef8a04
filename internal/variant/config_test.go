package variant

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if cfg.PunctuationChars != DefaultPunctuation {
		t.Errorf("punctuation = %q, want default", cfg.PunctuationChars)
	}
	if cfg.MaxVariations != DefaultMaxVariations {
		t.Errorf("max_variations = %d, want %d", cfg.MaxVariations, DefaultMaxVariations)
	}
	if len(cfg.Suffixes) == 0 {
		t.Error("expected default suffixes")
	}
}

func TestLoadConfig_MalformedJSONFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_expansion.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed JSON must fail loudly at load time")
	}
}

func TestLoadConfig_PartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query_expansion.json")
	if err := os.WriteFile(path, []byte(`{"max_variations": 4}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxVariations != 4 {
		t.Errorf("max_variations = %d, want 4", cfg.MaxVariations)
	}
	if cfg.PunctuationChars != DefaultPunctuation {
		t.Errorf("punctuation should default, got %q", cfg.PunctuationChars)
	}
	if len(cfg.Suffixes) == 0 {
		t.Error("suffixes should default")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	body := `{"punctuation_chars": "!", "suffixes": ["グルメ"], "max_variations": 2}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigEnvKey, path)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxVariations != 2 || cfg.PunctuationChars != "!" {
		t.Errorf("env override not applied: %+v", cfg)
	}
	if len(cfg.Suffixes) != 1 || cfg.Suffixes[0] != "グルメ" {
		t.Errorf("suffixes = %v, want [グルメ]", cfg.Suffixes)
	}
}
