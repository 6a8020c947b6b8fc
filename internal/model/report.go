package model

import "time"

// Report is the complete result of one evaluation run
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	GoldSource  string    `json:"gold_source"`        // Gold corpus that was scored against
	GoldSize    int       `json:"gold_size"`          // Number of gold instances
	Settings    Settings  `json:"settings"`           // Scoring settings applied to every pair

	Scores    []ScoreEntry     `json:"scores"`    // One entry per evaluated pair
	Confusion []ConfusionTable `json:"confusion"` // One table per evaluated pair

	Combined    *ConfusionTable           `json:"combined,omitempty"`     // Mean over all pairs
	ByTechnique map[string]ConfusionTable `json:"by_technique,omitempty"` // Mean over models, per technique

	Skipped []PairKey     `json:"skipped,omitempty"` // Pairs with no prediction corpus
	Failed  []PairFailure `json:"failed,omitempty"`  // Pairs that could not be scored
}

// Settings are the scoring options recorded with a report
type Settings struct {
	UseSpans                 bool    `json:"use_spans"`
	Pooled                   bool    `json:"pooled"`
	Alignment                string  `json:"alignment"`
	EmptyPredictionPrecision float64 `json:"empty_prediction_precision"`
	Level                    int     `json:"level"`
}

// ScoreEntry holds the scores for one (model, technique) pair
type ScoreEntry struct {
	PairKey
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Instances int     `json:"instances,omitempty"` // Aligned instances scored
	Unmatched int     `json:"unmatched,omitempty"` // Gold instances with no prediction
}

// ConfusionTable is a gold-type x predicted-type co-occurrence matrix.
// Matrix[g][p] counts gold class Classes[g] predicted as Classes[p].
type ConfusionTable struct {
	PairKey
	Classes []string    `json:"classes"`
	Matrix  [][]float64 `json:"matrix"`
}

// Empty reports whether the table has no classes
func (t ConfusionTable) Empty() bool {
	return len(t.Classes) == 0
}

// PairFailure records a pair that failed to score
type PairFailure struct {
	PairKey
	Error string `json:"error"`
}

// PairOutcome is what scoring one (model, technique) pair produces
type PairOutcome struct {
	Score     ScoreEntry     `json:"score"`
	Confusion ConfusionTable `json:"confusion"`
}
