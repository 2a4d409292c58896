package cleaner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StrategyConfig holds the acceptance thresholds for one strategy.
type StrategyConfig struct {
	// MinConfidence is the minimum confidence in [0,100] a candidate
	// must report to be accepted.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// MinOutputBytes rejects candidates that over-trimmed to near-empty
	// output.
	MinOutputBytes int `json:"min_output_bytes" yaml:"min_output_bytes"`
}

// Config defines acceptance thresholds for the orchestrator.
// It is immutable after construction; inject it, don't mutate it.
type Config struct {
	Structured  StrategyConfig `json:"structured" yaml:"structured"`
	Section     StrategyConfig `json:"section" yaml:"section"`
	ContentArea StrategyConfig `json:"content_area" yaml:"content_area"`

	// SectionKeywords are the recipe signal words the section strategy
	// scores on. Matching is case-insensitive.
	SectionKeywords []string `json:"section_keywords" yaml:"section_keywords"`

	// SectionMinTextLength is the text size above which a section
	// candidate earns its length bonus.
	SectionMinTextLength int `json:"section_min_text_length" yaml:"section_min_text_length"`
}

// DefaultConfig returns thresholds tuned for typical recipe pages.
func DefaultConfig() Config {
	return Config{
		Structured:  StrategyConfig{MinConfidence: 90, MinOutputBytes: 100},
		Section:     StrategyConfig{MinConfidence: 40, MinOutputBytes: 200},
		ContentArea: StrategyConfig{MinConfidence: 20, MinOutputBytes: 200},
		SectionKeywords: []string{
			"ingredients", "instructions", "directions", "method",
			"preparation", "prep time", "cook time", "total time",
			"servings", "yield", "nutrition",
		},
		SectionMinTextLength: 500,
	}
}

// FromFile loads a Config from a JSON or YAML file.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cleaner config: %w", err)
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse JSON cleaner config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML cleaner config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported cleaner config format: %s", ext)
	}

	return cfg, nil
}

// threshold returns the thresholds for the named strategy.
// Unknown strategies (raw passthrough) have no thresholds.
func (c Config) threshold(strategy string) (StrategyConfig, bool) {
	switch strategy {
	case StrategyStructured:
		return c.Structured, true
	case StrategySection:
		return c.Section, true
	case StrategyContentArea:
		return c.ContentArea, true
	}
	return StrategyConfig{}, false
}
