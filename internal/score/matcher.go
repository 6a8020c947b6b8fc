package score

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/fallacia/internal/model"
)

// Options selects how predictions are matched against gold labels
type Options struct {
	// UseSpans weights name matches by span overlap
	UseSpans bool
	// Pooled averages over all labels of the corpus instead of per instance
	Pooled bool
	// EmptyPredictionPrecision is the precision of an empty prediction set (0 or 1)
	EmptyPredictionPrecision float64
}

// OptionsFromSettings converts report settings to matcher options
func OptionsFromSettings(s model.Settings) Options {
	return Options{
		UseSpans:                 s.UseSpans,
		Pooled:                   s.Pooled,
		EmptyPredictionPrecision: s.EmptyPredictionPrecision,
	}
}

// Result holds the three corpus-level scores
type Result struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluate computes precision, recall and F1 for an aligned corpus
func Evaluate(pairs []model.AlignedPair, opts Options) Result {
	var p, r float64
	if opts.Pooled {
		p = PooledPrecision(pairs, opts)
		r = PooledRecall(pairs, opts)
	} else {
		p = Precision(pairs, opts)
		r = Recall(pairs, opts)
	}
	return Result{Precision: p, Recall: r, F1: F1(p, r)}
}

// InstancePrecision averages, over every predicted label, the best score
// against any gold label. An empty prediction set scores
// opts.EmptyPredictionPrecision.
func InstancePrecision(predicted, gold []model.Label, opts Options) float64 {
	if len(predicted) == 0 {
		return opts.EmptyPredictionPrecision
	}
	scores := make([]float64, len(predicted))
	for i, p := range predicted {
		scores[i] = bestMatch(p, gold, true, opts.UseSpans)
	}
	return stat.Mean(scores, nil)
}

// InstanceRecall averages, over every gold label except "nothing", the best
// score against any predicted label. A gold set that is empty after the
// exclusion scores 1.
func InstanceRecall(predicted, gold []model.Label, opts Options) float64 {
	relevant := withoutNothing(gold)
	if len(relevant) == 0 {
		return 1
	}
	scores := make([]float64, len(relevant))
	for i, g := range relevant {
		scores[i] = bestMatch(g, predicted, false, opts.UseSpans)
	}
	return stat.Mean(scores, nil)
}

// Precision is the mean instance precision over the corpus, 0 for an empty corpus
func Precision(pairs []model.AlignedPair, opts Options) float64 {
	if len(pairs) == 0 {
		return 0
	}
	values := make([]float64, len(pairs))
	for i, pair := range pairs {
		values[i] = InstancePrecision(pair.Prediction.Labels, pair.Gold.Labels, opts)
	}
	return stat.Mean(values, nil)
}

// Recall is the mean instance recall over the corpus, 0 for an empty corpus
func Recall(pairs []model.AlignedPair, opts Options) float64 {
	if len(pairs) == 0 {
		return 0
	}
	values := make([]float64, len(pairs))
	for i, pair := range pairs {
		values[i] = InstanceRecall(pair.Prediction.Labels, pair.Gold.Labels, opts)
	}
	return stat.Mean(values, nil)
}

// PooledPrecision averages best-match scores over every predicted label of
// the corpus; best matches are still taken within each instance
func PooledPrecision(pairs []model.AlignedPair, opts Options) float64 {
	var scores []float64
	for _, pair := range pairs {
		for _, p := range pair.Prediction.Labels {
			scores = append(scores, bestMatch(p, pair.Gold.Labels, true, opts.UseSpans))
		}
	}
	if len(scores) == 0 {
		return opts.EmptyPredictionPrecision
	}
	return stat.Mean(scores, nil)
}

// PooledRecall averages best-match scores over every relevant gold label of
// the corpus
func PooledRecall(pairs []model.AlignedPair, opts Options) float64 {
	var scores []float64
	for _, pair := range pairs {
		for _, g := range withoutNothing(pair.Gold.Labels) {
			scores = append(scores, bestMatch(g, pair.Prediction.Labels, false, opts.UseSpans))
		}
	}
	if len(scores) == 0 {
		return 1
	}
	return stat.Mean(scores, nil)
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0
func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func withoutNothing(labels []model.Label) []model.Label {
	out := make([]model.Label, 0, len(labels))
	for _, l := range labels {
		if !l.IsNothing() {
			out = append(out, l)
		}
	}
	return out
}
