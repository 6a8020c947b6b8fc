package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid config")

// Alignment modes for pairing prediction instances with gold instances
const (
	AlignByKey      = "key"
	AlignByPosition = "position"
)

// Config is the complete fallacia configuration
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Evaluation  EvaluationConfig  `yaml:"evaluation" mapstructure:"evaluation"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DataConfig locates the gold corpus and the prediction corpora
type DataConfig struct {
	GoldPath       string   `yaml:"gold_path" mapstructure:"gold_path"`
	PredictionsDir string   `yaml:"predictions_dir" mapstructure:"predictions_dir"`
	FilePattern    string   `yaml:"file_pattern" mapstructure:"file_pattern"` // {model} and {technique} are substituted
	Models         []string `yaml:"models" mapstructure:"models"`
	Techniques     []string `yaml:"techniques" mapstructure:"techniques"`
}

// EvaluationConfig selects scoring behaviour
type EvaluationConfig struct {
	UseSpans                 bool    `yaml:"use_spans" mapstructure:"use_spans"`
	Pooled                   bool    `yaml:"pooled" mapstructure:"pooled"`
	Alignment                string  `yaml:"alignment" mapstructure:"alignment"`
	EmptyPredictionPrecision float64 `yaml:"empty_prediction_precision" mapstructure:"empty_prediction_precision"`
	Level                    int     `yaml:"level" mapstructure:"level"`
}

// ConcurrencyConfig controls the pair worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig controls the per-pair result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	JSONPath     string `yaml:"json_path" mapstructure:"json_path"`
	MarkdownPath string `yaml:"markdown_path" mapstructure:"markdown_path"`
	CSVPath      string `yaml:"csv_path" mapstructure:"csv_path"`
	Verbose      bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "fallacia-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".fallacia", "cache")
	}

	return &Config{
		Data: DataConfig{
			GoldPath:       "data/gold_standard_dataset.jsonl",
			PredictionsDir: "data/responses",
			FilePattern:    "{model}_{technique}.jsonl",
			Models:         []string{"Falcon"},
			Techniques:     TechniqueIDs(AllTechniques()),
		},
		Evaluation: EvaluationConfig{
			UseSpans:                 false,
			Pooled:                   false,
			Alignment:                AlignByKey,
			EmptyPredictionPrecision: 0,
			Level:                    2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			JSONPath: "evaluation.json",
		},
	}
}

// Validate checks the configuration for values the evaluator cannot use
func (c *Config) Validate() error {
	switch c.Evaluation.Alignment {
	case AlignByKey, AlignByPosition:
	default:
		return fmt.Errorf("%w: alignment %q (supported: %s, %s)", ErrInvalidConfig, c.Evaluation.Alignment, AlignByKey, AlignByPosition)
	}
	if c.Evaluation.Level != 1 && c.Evaluation.Level != 2 {
		return fmt.Errorf("%w: level %d (supported: 1, 2)", ErrInvalidConfig, c.Evaluation.Level)
	}
	if p := c.Evaluation.EmptyPredictionPrecision; p != 0 && p != 1 {
		return fmt.Errorf("%w: empty_prediction_precision %v (supported: 0, 1)", ErrInvalidConfig, p)
	}
	if len(c.Data.Models) == 0 {
		return fmt.Errorf("%w: no models configured", ErrInvalidConfig)
	}
	if len(c.Data.Techniques) == 0 {
		return fmt.Errorf("%w: no techniques configured", ErrInvalidConfig)
	}
	for _, t := range c.Data.Techniques {
		if _, err := ParseTechnique(t); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if c.Data.GoldPath == "" {
		return fmt.Errorf("%w: gold_path is required", ErrInvalidConfig)
	}
	if !strings.Contains(c.Data.FilePattern, "{model}") || !strings.Contains(c.Data.FilePattern, "{technique}") {
		return fmt.Errorf("%w: file_pattern %q must contain {model} and {technique}", ErrInvalidConfig, c.Data.FilePattern)
	}
	return nil
}

// Settings returns the scoring settings recorded in reports
func (c *Config) Settings() Settings {
	return Settings{
		UseSpans:                 c.Evaluation.UseSpans,
		Pooled:                   c.Evaluation.Pooled,
		Alignment:                c.Evaluation.Alignment,
		EmptyPredictionPrecision: c.Evaluation.EmptyPredictionPrecision,
		Level:                    c.Evaluation.Level,
	}
}

// PredictionPath returns the prediction corpus file for a pair
func (c *Config) PredictionPath(key PairKey) string {
	name := strings.NewReplacer("{model}", key.Model, "{technique}", key.Technique).Replace(c.Data.FilePattern)
	return filepath.Join(c.Data.PredictionsDir, name)
}

// Techniques returns the configured technique identifiers in canonical
// spelling, without duplicates, in first-occurrence order
func (c *Config) Techniques() []string {
	techniques := make([]string, 0, len(c.Data.Techniques))
	seen := make(map[string]bool, len(c.Data.Techniques))
	for _, t := range c.Data.Techniques {
		if tech, err := ParseTechnique(t); err == nil {
			t = tech.ID()
		}
		if !seen[t] {
			seen[t] = true
			techniques = append(techniques, t)
		}
	}
	return techniques
}

// Pairs enumerates every configured (model, technique) combination once
func (c *Config) Pairs() []PairKey {
	techniques := c.Techniques()
	pairs := make([]PairKey, 0, len(c.Data.Models)*len(techniques))
	seen := make(map[string]bool, len(c.Data.Models))
	for _, m := range c.Data.Models {
		if seen[m] {
			continue
		}
		seen[m] = true
		for _, t := range techniques {
			pairs = append(pairs, PairKey{Model: m, Technique: t})
		}
	}
	return pairs
}
