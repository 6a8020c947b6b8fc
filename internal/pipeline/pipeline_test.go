package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fallacia/internal/cache"
	"github.com/ppiankov/fallacia/internal/corpus"
	"github.com/ppiankov/fallacia/internal/model"
)

const goldFixture = `{"text": "If we allow this, everything collapses.", "labels": [[0, 5, "slippery slope"]]}
{"text": "He is a fool, and you want to ban all cars.", "labels": [[0, 4, "ad hominem"], [5, 9, "straw man"]]}
`

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// newFixture lays out a gold corpus and prediction files for model Falcon:
// zero-shot scores cleanly, few-shot has no file and Automatic-CoT
// predicts a text absent from the gold corpus.
func newFixture(t *testing.T) *model.Config {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, "gold.jsonl", goldFixture)
	writeFixture(t, dir, "Falcon_zero-shot.jsonl",
		`{"text": "If we allow this, everything collapses.", "labels": [[0, 5, "Slippery Slope"]]}
{"text": "He is a fool, and you want to ban all cars.", "labels": [[0, 4, "ad hominem"]]}
`)
	writeFixture(t, dir, "Falcon_Automatic-CoT.jsonl",
		`{"text": "A text nobody annotated.", "labels": [[0, 1, "nothing"]]}
`)

	cfg := model.DefaultConfig()
	cfg.Data.GoldPath = filepath.Join(dir, "gold.jsonl")
	cfg.Data.PredictionsDir = dir
	cfg.Data.Models = []string{"Falcon"}
	cfg.Data.Techniques = []string{"zero-shot", "few-shot", "automatic-cot"}
	cfg.Concurrency.Workers = 2
	cfg.Cache.Enabled = false
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluate(t *testing.T) {
	cfg := newFixture(t)
	report, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.GoldSize)
	assert.Equal(t, cfg.Settings(), report.Settings)

	require.Len(t, report.Scores, 1)
	entry := report.Scores[0]
	assert.Equal(t, model.PairKey{Model: "Falcon", Technique: "zero-shot"}, entry.PairKey)
	assert.InDelta(t, 1.0, entry.Precision, 1e-9)
	assert.InDelta(t, 0.75, entry.Recall, 1e-9)
	assert.InDelta(t, 6.0/7.0, entry.F1, 1e-9)
	assert.Equal(t, 2, entry.Instances)
	assert.Zero(t, entry.Unmatched)

	assert.Equal(t, []model.PairKey{{Model: "Falcon", Technique: "few-shot"}}, report.Skipped)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Automatic-CoT", report.Failed[0].Technique)
	assert.Contains(t, report.Failed[0].Error, "misaligned")
}

func TestEvaluate_Confusion(t *testing.T) {
	cfg := newFixture(t)
	report, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Confusion, 1)
	table := report.Confusion[0]
	assert.Equal(t, []string{"ad hominem", "slippery slope", "straw man"}, table.Classes)
	assert.Equal(t, [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{1, 0, 0},
	}, table.Matrix)

	require.NotNil(t, report.Combined)
	assert.Equal(t, table.Matrix, report.Combined.Matrix)

	require.Contains(t, report.ByTechnique, "zero-shot")
	assert.NotContains(t, report.ByTechnique, "few-shot")
}

func TestEvaluate_Level1Clusters(t *testing.T) {
	cfg := newFixture(t)
	cfg.Evaluation.Level = 1
	report, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Confusion, 1)
	assert.LessOrEqual(t, len(report.Confusion[0].Classes), 3)
	for _, class := range report.Confusion[0].Classes {
		assert.NotEqual(t, "slippery slope", class)
	}
}

func TestEvaluate_MissingPredictionsOnly(t *testing.T) {
	cfg := newFixture(t)
	cfg.Data.Models = []string{"Nobody"}

	report, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.NoError(t, err)

	assert.Empty(t, report.Scores)
	assert.Len(t, report.Skipped, 3)
	assert.Nil(t, report.Combined)
}

func TestEvaluate_MissingGold(t *testing.T) {
	cfg := newFixture(t)
	cfg.Data.GoldPath = filepath.Join(t.TempDir(), "absent.jsonl")

	_, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, corpus.ErrMissingCorpus)
}

func TestEvaluate_Cancelled(t *testing.T) {
	cfg := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(cfg, quietLogger()).Evaluate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_UsesCache(t *testing.T) {
	cfg := newFixture(t)
	memory := cache.NewMemoryCache(time.Hour, time.Minute)
	p := NewPipeline(cfg, quietLogger()).WithCache(memory)

	first, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, memory.Len(), "only the scored pair is cached")

	second, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Confusion, second.Confusion)
	assert.NotEqual(t, first.RunID, second.RunID)

	// Changing a scoring setting must not reuse the cached result
	cfg.Evaluation.UseSpans = true
	_, err = p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, memory.Len())
}

func TestRenderReport(t *testing.T) {
	cfg := newFixture(t)
	out := t.TempDir()
	cfg.Output.JSONPath = filepath.Join(out, "report.json")
	cfg.Output.MarkdownPath = filepath.Join(out, "report.md")
	cfg.Output.CSVPath = filepath.Join(out, "scores.csv")

	p := NewPipeline(cfg, quietLogger())
	report, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.RenderReport(report))

	for _, path := range []string{cfg.Output.JSONPath, cfg.Output.MarkdownPath, cfg.Output.CSVPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}
}

func TestEvaluate_DuplicatePairsAreScoredOnce(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gold.jsonl",
		`{"text": "You are a fool.", "labels": [[0, 3, "ad hominem"]]}
{"text": "So you want to ban everything.", "labels": [[0, 2, "straw man"]]}
`)
	writeFixture(t, dir, "Falcon_zero-shot.jsonl",
		`{"text": "You are a fool.", "labels": [[0, 3, "ad hominem"]]}
`)
	writeFixture(t, dir, "Llama_few-shot.jsonl",
		`{"text": "So you want to ban everything.", "labels": [[0, 2, "ad hominem"]]}
`)

	cfg := model.DefaultConfig()
	cfg.Data.GoldPath = filepath.Join(dir, "gold.jsonl")
	cfg.Data.PredictionsDir = dir
	cfg.Data.Models = []string{"Falcon", "Llama", "Falcon"}
	cfg.Data.Techniques = []string{"zero-shot", "ZERO-SHOT", "few-shot"}
	cfg.Cache.Enabled = false

	report, err := NewPipeline(cfg, quietLogger()).Evaluate(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Scores, 2)
	assert.Len(t, report.Confusion, 2)
	assert.ElementsMatch(t, []model.PairKey{
		{Model: "Falcon", Technique: "few-shot"},
		{Model: "Llama", Technique: "zero-shot"},
	}, report.Skipped)

	require.NotNil(t, report.Combined)
	assert.Equal(t, []string{"ad hominem", "straw man"}, report.Combined.Classes)
	assert.Equal(t, [][]float64{
		{0.5, 0},
		{0.5, 0},
	}, report.Combined.Matrix)
}
