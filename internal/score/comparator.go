package score

import (
	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/taxonomy"
)

// Delta reports whether at least one name in a also appears in b, ignoring case
func Delta(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	folded := make(map[string]struct{}, len(b))
	for _, name := range b {
		folded[taxonomy.Normalize(name)] = struct{}{}
	}
	for _, name := range a {
		if _, ok := folded[taxonomy.Normalize(name)]; ok {
			return true
		}
	}
	return false
}

// Compare scores a predicted label against a gold label in [0, 1].
//
// Without spans the score is 1 when the type names match and 0 otherwise.
// With spans the name match is multiplied by the Jaccard overlap of the two
// index sets; two zero-length spans have an overlap of 0.
func Compare(p, g model.Label, useSpans bool) float64 {
	if !Delta([]string{p.Name}, []string{g.Name}) {
		return 0
	}
	if !useSpans {
		return 1
	}
	return Jaccard(p, g)
}

// Jaccard returns |I| / |U| over the index sets of both labels, or 0 when the
// union is empty
func Jaccard(p, g model.Label) float64 {
	intersection := p.Overlap(g)
	union := p.Len() + g.Len() - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// bestMatch returns the highest Compare score of label against candidates.
// The predicted side is always passed first to Compare.
func bestMatch(label model.Label, candidates []model.Label, labelIsPrediction, useSpans bool) float64 {
	best := 0.0
	for _, c := range candidates {
		var s float64
		if labelIsPrediction {
			s = Compare(label, c, useSpans)
		} else {
			s = Compare(c, label, useSpans)
		}
		if s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}
