package worker

import (
	"context"

	"github.com/ppiankov/fallacia/internal/model"
)

// PairEvaluator scores one (model, technique) pair
type PairEvaluator interface {
	EvaluatePair(ctx context.Context, key model.PairKey) (*model.PairOutcome, error)
}

// PairJob represents the scoring of one pair
type PairJob struct {
	Key       model.PairKey
	Evaluator PairEvaluator

	index int
}

// Execute executes the pair job
func (j *PairJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &PairResult{Key: j.Key, Error: err, index: j.index}
	}
	outcome, err := j.Evaluator.EvaluatePair(ctx, j.Key)
	return &PairResult{Key: j.Key, Outcome: outcome, Error: err, index: j.index}
}

// PairResult represents the result of a pair job
type PairResult struct {
	Key     model.PairKey
	Outcome *model.PairOutcome
	Error   error

	index int
}

// GetError returns the error from the pair result
func (r *PairResult) GetError() error {
	return r.Error
}

// BatchProcessor scores many pairs concurrently
type BatchProcessor struct {
	evaluator   PairEvaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator PairEvaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessPairs scores every pair and returns results in the order of keys.
// A pair whose job never ran because ctx was cancelled carries ctx.Err().
func (b *BatchProcessor) ProcessPairs(ctx context.Context, keys []model.PairKey) []*PairResult {
	if len(keys) == 0 {
		return []*PairResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, key := range keys {
		pool.Submit(&PairJob{
			Key:       key,
			Evaluator: b.evaluator,
			index:     i,
		})
	}

	results := pool.Wait()

	ordered := make([]*PairResult, len(keys))
	for _, result := range results {
		r := result.(*PairResult)
		ordered[r.index] = r
	}

	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &PairResult{Key: keys[i], Error: err, index: i}
		}
	}

	return ordered
}
