package corpus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fallacia/internal/model"
)

func instance(text string, names ...string) model.Instance {
	inst := model.Instance{Text: text}
	for _, n := range names {
		inst.Labels = append(inst.Labels, model.Label{Name: n})
	}
	return inst
}

func corpusOf(instances ...model.Instance) *model.Corpus {
	return &model.Corpus{Instances: instances}
}

func TestAlign_ByKeyReorders(t *testing.T) {
	gold := corpusOf(instance("first", "ad hominem"), instance("second", "straw man"))
	preds := corpusOf(instance("second ", "tu quoque"), instance("first", "ad populum"))

	a, err := Align(gold, preds, model.AlignByKey)
	require.NoError(t, err)

	require.Len(t, a.Pairs, 2)
	assert.Equal(t, "ad populum", a.Pairs[0].Prediction.Labels[0].Name)
	assert.Equal(t, "tu quoque", a.Pairs[1].Prediction.Labels[0].Name)
	assert.Equal(t, 0, a.Unmatched)
}

func TestAlign_ByKeyDuplicateTexts(t *testing.T) {
	gold := corpusOf(instance("same", "a"), instance("same", "b"))
	preds := corpusOf(instance("same", "x"), instance("same", "y"))

	a, err := Align(gold, preds, model.AlignByKey)
	require.NoError(t, err)

	assert.Equal(t, "x", a.Pairs[0].Prediction.Labels[0].Name)
	assert.Equal(t, "y", a.Pairs[1].Prediction.Labels[0].Name)
}

func TestAlign_ByKeyMissingPrediction(t *testing.T) {
	gold := corpusOf(instance("first", "ad hominem"), instance("second", "straw man"))
	preds := corpusOf(instance("first", "ad hominem"))

	a, err := Align(gold, preds, model.AlignByKey)
	require.NoError(t, err)

	assert.Equal(t, 1, a.Unmatched)
	assert.Empty(t, a.Pairs[1].Prediction.Labels)
	assert.Equal(t, "second", a.Pairs[1].Prediction.Text)
}

func TestAlign_ByKeyUnknownPrediction(t *testing.T) {
	gold := corpusOf(instance("first"))
	preds := corpusOf(instance("first"), instance("stranger"))

	_, err := Align(gold, preds, model.AlignByKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMisaligned))
	assert.Contains(t, err.Error(), "stranger")
}

func TestAlign_ByPosition(t *testing.T) {
	gold := corpusOf(instance("first", "a"), instance("second", "b"))

	a, err := Align(gold, corpusOf(instance("first", "x"), instance("second", "y")), model.AlignByPosition)
	require.NoError(t, err)
	assert.Equal(t, "y", a.Pairs[1].Prediction.Labels[0].Name)

	_, err = Align(gold, corpusOf(instance("second"), instance("first")), model.AlignByPosition)
	assert.True(t, errors.Is(err, ErrMisaligned))

	_, err = Align(gold, corpusOf(instance("first")), model.AlignByPosition)
	assert.True(t, errors.Is(err, ErrMisaligned))
}

func TestAlign_UnknownMode(t *testing.T) {
	_, err := Align(corpusOf(), corpusOf(), "fuzzy")
	assert.Error(t, err)
}
