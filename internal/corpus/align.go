package corpus

import (
	"errors"
	"fmt"

	"github.com/ppiankov/fallacia/internal/model"
)

// ErrMisaligned is returned when prediction instances cannot be matched to
// the gold instances for the same text
var ErrMisaligned = errors.New("corpora are misaligned")

// Alignment is the result of pairing a prediction corpus with the gold corpus
type Alignment struct {
	Pairs []model.AlignedPair
	// Unmatched counts gold instances that had no prediction; they are paired
	// with an empty prediction set
	Unmatched int
}

// Align pairs every gold instance with its prediction using the given mode
func Align(gold, predictions *model.Corpus, mode string) (*Alignment, error) {
	switch mode {
	case model.AlignByKey, "":
		return alignByKey(gold, predictions)
	case model.AlignByPosition:
		return alignByPosition(gold, predictions)
	default:
		return nil, fmt.Errorf("unknown alignment mode: %s", mode)
	}
}

// alignByKey matches instances on their trimmed text. Repeated texts are
// paired in order of occurrence.
func alignByKey(gold, predictions *model.Corpus) (*Alignment, error) {
	queues := make(map[string][]model.Instance)
	for _, inst := range predictions.Instances {
		k := inst.Key()
		queues[k] = append(queues[k], inst)
	}

	a := &Alignment{Pairs: make([]model.AlignedPair, 0, gold.Len())}
	for _, g := range gold.Instances {
		k := g.Key()
		queue := queues[k]
		if len(queue) == 0 {
			a.Unmatched++
			a.Pairs = append(a.Pairs, model.AlignedPair{
				Gold:       g,
				Prediction: model.Instance{Text: g.Text},
			})
			continue
		}
		a.Pairs = append(a.Pairs, model.AlignedPair{Gold: g, Prediction: queue[0]})
		queues[k] = queue[1:]
	}

	var leftover int
	var example string
	for _, inst := range predictions.Instances {
		if q := queues[inst.Key()]; len(q) > 0 {
			leftover += len(q)
			if example == "" {
				example = q[0].Text
			}
			queues[inst.Key()] = nil
		}
	}
	if leftover > 0 {
		return nil, fmt.Errorf("%w: %d prediction instance(s) have no gold instance (first: %q)", ErrMisaligned, leftover, truncate(example, 60))
	}

	return a, nil
}

// alignByPosition pairs instance i with instance i and verifies the texts agree
func alignByPosition(gold, predictions *model.Corpus) (*Alignment, error) {
	if gold.Len() != predictions.Len() {
		return nil, fmt.Errorf("%w: %d gold instances, %d predictions", ErrMisaligned, gold.Len(), predictions.Len())
	}

	a := &Alignment{Pairs: make([]model.AlignedPair, gold.Len())}
	for i, g := range gold.Instances {
		p := predictions.Instances[i]
		if g.Key() != p.Key() {
			return nil, fmt.Errorf("%w: instance %d text differs (gold %q, prediction %q)", ErrMisaligned, i, truncate(g.Key(), 40), truncate(p.Key(), 40))
		}
		a.Pairs[i] = model.AlignedPair{Gold: g, Prediction: p}
	}
	return a, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
