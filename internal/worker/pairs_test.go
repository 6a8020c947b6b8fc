package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fallacia/internal/model"
)

// stubEvaluator scores pairs from a fixed table
type stubEvaluator struct {
	scores map[model.PairKey]float64
	delay  time.Duration
}

func (s *stubEvaluator) EvaluatePair(ctx context.Context, key model.PairKey) (*model.PairOutcome, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p, ok := s.scores[key]
	if !ok {
		return nil, errors.New("no predictions")
	}
	return &model.PairOutcome{
		Score: model.ScoreEntry{PairKey: key, Precision: p, Recall: p, F1: p},
	}, nil
}

func TestBatchProcessor_ProcessPairs(t *testing.T) {
	keys := []model.PairKey{
		{Model: "Falcon", Technique: "zero-shot"},
		{Model: "Falcon", Technique: "few-shot"},
		{Model: "Llama", Technique: "zero-shot"},
		{Model: "Llama", Technique: "few-shot"},
	}
	eval := &stubEvaluator{
		scores: map[model.PairKey]float64{
			keys[0]: 0.1,
			keys[1]: 0.2,
			keys[3]: 0.4,
		},
		delay: time.Millisecond,
	}

	results := NewBatchProcessor(eval, 3).ProcessPairs(context.Background(), keys)
	require.Len(t, results, len(keys))

	for i, res := range results {
		assert.Equal(t, keys[i], res.Key, "results keep input order")
	}

	assert.NoError(t, results[0].GetError())
	assert.InDelta(t, 0.1, results[0].Outcome.Score.Precision, 1e-9)
	assert.InDelta(t, 0.4, results[3].Outcome.Score.F1, 1e-9)

	assert.Error(t, results[2].GetError())
	assert.Nil(t, results[2].Outcome)
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&stubEvaluator{}, 2).ProcessPairs(context.Background(), nil)
	assert.Empty(t, results)
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	keys := []model.PairKey{{Model: "m", Technique: "zero-shot"}, {Model: "m", Technique: "few-shot"}}
	eval := &stubEvaluator{scores: map[model.PairKey]float64{keys[0]: 1, keys[1]: 1}}

	results := NewBatchProcessor(eval, 1).ProcessPairs(ctx, keys)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.GetError(), context.Canceled)
	}
}
