package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fallacia/internal/model"
)

func sampleReport() *model.Report {
	combined := model.ConfusionTable{
		PairKey: model.PairKey{Model: "all", Technique: "all"},
		Classes: []string{"ad hominem", "nothing"},
		Matrix:  [][]float64{{1.5, 0}, {0.25, 2}},
	}
	return &model.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		GoldSource:  "gold.jsonl",
		GoldSize:    2,
		Settings:    model.Settings{Alignment: model.AlignByKey, Level: 2},
		Scores: []model.ScoreEntry{
			{PairKey: model.PairKey{Model: "Falcon", Technique: "zero-shot"}, Precision: 1, Recall: 0.75, F1: 6.0 / 7.0},
			{PairKey: model.PairKey{Model: "Falcon", Technique: "few-shot"}, Precision: 0.5, Recall: 0.5, F1: 0.5},
		},
		Combined: &combined,
		Skipped:  []model.PairKey{{Model: "Falcon", Technique: "generated-knowledge"}},
		Failed: []model.PairFailure{
			{PairKey: model.PairKey{Model: "Falcon", Technique: "Automatic-CoT"}, Error: "corpora are misaligned"},
		},
	}
}

func TestRenderer_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().WriteCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"model,technique,precision,recall,f1",
		"Falcon,few-shot,0.5000,0.5000,0.5000",
		"Falcon,zero-shot,1.0000,0.7500,0.8571",
	}, lines)
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer().Markdown(sampleReport())

	assert.Contains(t, md, "| model | technique | precision | recall | f1 |")
	assert.Contains(t, md, "| Falcon | zero-shot | 1.0000 | 0.7500 | 0.8571 |")
	assert.Contains(t, md, "| gold \\ predicted | ad hominem | nothing |")
	assert.Contains(t, md, "| nothing | 0.25 | 2.00 |")
	assert.Contains(t, md, "Falcon/generated-knowledge: no prediction corpus")
	assert.Contains(t, md, "Falcon/Automatic-CoT: corpora are misaligned")
}

func TestRenderer_MarkdownSkipsEmptyConfusion(t *testing.T) {
	report := sampleReport()
	report.Combined = &model.ConfusionTable{}
	report.Scores = nil

	md := NewRenderer().Markdown(report)
	assert.NotContains(t, md, "## Confusion")
	assert.Contains(t, md, "No pairs were scored")
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewRenderer().RenderJSON(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded model.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Scores, 2)
	assert.Equal(t, "zero-shot", decoded.Scores[0].Technique)
}

func TestRenderer_RenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer().RenderSummary(&buf, sampleReport())

	out := buf.String()
	assert.Contains(t, out, "P=1.0000  R=0.7500  F1=0.8571")
	assert.Contains(t, out, "skipped Falcon/generated-knowledge")
	assert.Contains(t, out, "✗ failed Falcon/Automatic-CoT")
}

func TestRenderer_MarkdownEscapesCells(t *testing.T) {
	report := sampleReport()
	report.Combined = &model.ConfusionTable{
		Classes: []string{"ad hominem", "a|b"},
		Matrix:  [][]float64{{1, 0}, {0, 1}},
	}

	md := NewRenderer().Markdown(report)
	assert.Contains(t, md, "| gold \\ predicted | ad hominem | a\\|b |")
	assert.Contains(t, md, "| a\\|b | 0.00 | 1.00 |")
}
