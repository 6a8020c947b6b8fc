package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Pairs(), len(AllTechniques()))
	assert.Positive(t, cfg.Concurrency.Workers)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown alignment", func(c *Config) { c.Evaluation.Alignment = "fuzzy" }},
		{"level 3", func(c *Config) { c.Evaluation.Level = 3 }},
		{"empty precision policy", func(c *Config) { c.Evaluation.EmptyPredictionPrecision = 0.5 }},
		{"no models", func(c *Config) { c.Data.Models = nil }},
		{"no techniques", func(c *Config) { c.Data.Techniques = nil }},
		{"unknown technique", func(c *Config) { c.Data.Techniques = []string{"tree-of-thought"} }},
		{"no gold path", func(c *Config) { c.Data.GoldPath = "" }},
		{"pattern without technique", func(c *Config) { c.Data.FilePattern = "{model}.jsonl" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_PredictionPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.PredictionsDir = "responses"

	path := cfg.PredictionPath(PairKey{Model: "Falcon", Technique: "Automatic-CoT"})
	assert.Equal(t, filepath.Join("responses", "Falcon_Automatic-CoT.jsonl"), path)
}

func TestConfig_PairsCanonicalisesTechniques(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Models = []string{"Falcon", "Llama"}
	cfg.Data.Techniques = []string{"ZERO-SHOT", "automatic-cot"}

	assert.Equal(t, []PairKey{
		{Model: "Falcon", Technique: "zero-shot"},
		{Model: "Falcon", Technique: "Automatic-CoT"},
		{Model: "Llama", Technique: "zero-shot"},
		{Model: "Llama", Technique: "Automatic-CoT"},
	}, cfg.Pairs())
}

func TestParseTechnique(t *testing.T) {
	tech, err := ParseTechnique(" Generated-Knowledge ")
	assert.NoError(t, err)
	assert.Equal(t, TechniqueGeneratedKnowledge, tech)

	_, err = ParseTechnique("chain-of-thought")
	assert.Error(t, err)
}

func TestCorpus_Counts(t *testing.T) {
	var nilCorpus *Corpus
	assert.Zero(t, nilCorpus.Len())
	assert.Zero(t, nilCorpus.LabelCount())

	c := &Corpus{Instances: []Instance{
		{Text: "a", Labels: []Label{{Name: "x"}, {Name: "y"}}},
		{Text: "b", Labels: []Label{{Name: "nothing"}}},
	}}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.LabelCount())
}

func TestConfig_PairsCollapsesDuplicates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.Models = []string{"Falcon", "Llama", "Falcon"}
	cfg.Data.Techniques = []string{"zero-shot", "ZERO-SHOT", "few-shot"}

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"zero-shot", "few-shot"}, cfg.Techniques())
	assert.Equal(t, []PairKey{
		{Model: "Falcon", Technique: "zero-shot"},
		{Model: "Falcon", Technique: "few-shot"},
		{Model: "Llama", Technique: "zero-shot"},
		{Model: "Llama", Technique: "few-shot"},
	}, cfg.Pairs())
}
