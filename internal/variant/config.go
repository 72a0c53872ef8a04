package variant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults used when no config file is present.
const (
	DefaultPunctuation   = "、。！？「」『』（）［］【】〈〉《》,.!?;:'\"()[]{}…"
	DefaultMaxVariations = 6
)

// DefaultSuffixes are recommendation-style hints appended to the base query.
func DefaultSuffixes() []string {
	return []string{"おすすめ", "観光", "人気スポット"}
}

// ConfigEnvKey overrides the variant config file location.
const ConfigEnvKey = "QUERY_EXPANSION_CONFIG_PATH"

// DefaultConfigPath is the variant config location relative to the working directory.
const DefaultConfigPath = "config/query_expansion.json"

// Config drives variant generation. Loaded once at the composition root and
// injected into the Generator.
type Config struct {
	PunctuationChars string   `json:"punctuation_chars"`
	Suffixes         []string `json:"suffixes"`
	MaxVariations    int      `json:"max_variations"`
}

// DefaultConfig returns the built-in variant configuration.
func DefaultConfig() Config {
	return Config{
		PunctuationChars: DefaultPunctuation,
		Suffixes:         DefaultSuffixes(),
		MaxVariations:    DefaultMaxVariations,
	}
}

// LoadConfig reads the variant configuration from path. An empty path resolves
// via the QUERY_EXPANSION_CONFIG_PATH env variable, then the default location.
// A missing file is not an error — defaults apply. Malformed JSON is a fatal
// load-time error: silently falling back would mask an operator mistake.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnvKey)
	}
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read variant config %s: %w", path, err)
	}

	var raw Config
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse variant config %s: %w", path, err)
	}

	return normalize(raw), nil
}

// normalize fills gaps in a partially specified config with defaults.
func normalize(c Config) Config {
	if c.PunctuationChars == "" {
		c.PunctuationChars = DefaultPunctuation
	}
	if c.Suffixes == nil {
		c.Suffixes = DefaultSuffixes()
	}
	if c.MaxVariations < 1 {
		c.MaxVariations = DefaultMaxVariations
	}
	return c
}
