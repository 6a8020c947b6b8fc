package score

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/taxonomy"
)

// Classifier maps a label name onto the class used to index a confusion matrix
type Classifier func(name string) string

// NameClass is the default classifier: the normalized type name
func NameClass(name string) string {
	return taxonomy.Normalize(name)
}

// Confusion is a square gold-class x predicted-class matrix over a sorted
// class list. The zero-class matrix has no backing storage.
type Confusion struct {
	Key     model.PairKey
	classes []string
	index   map[string]int
	counts  *mat.Dense
}

// BuildConfusion counts, for every aligned instance, each (gold, predicted)
// label pair of the cross product once. Instances with several labels on
// either side therefore contribute several cells.
func BuildConfusion(key model.PairKey, pairs []model.AlignedPair, classify Classifier) *Confusion {
	if classify == nil {
		classify = NameClass
	}

	seen := make(map[string]struct{})
	for _, pair := range pairs {
		for _, l := range pair.Gold.Labels {
			seen[classify(l.Name)] = struct{}{}
		}
		for _, l := range pair.Prediction.Labels {
			seen[classify(l.Name)] = struct{}{}
		}
	}

	c := newConfusion(key, sortedKeys(seen))
	if c.counts == nil {
		return c
	}

	for _, pair := range pairs {
		for _, g := range pair.Gold.Labels {
			gi := c.index[classify(g.Name)]
			for _, p := range pair.Prediction.Labels {
				pi := c.index[classify(p.Name)]
				c.counts.Set(gi, pi, c.counts.At(gi, pi)+1)
			}
		}
	}
	return c
}

// FromTable rebuilds a confusion matrix from its serialised form
func FromTable(t model.ConfusionTable) (*Confusion, error) {
	c := newConfusion(t.PairKey, t.Classes)
	if len(t.Matrix) != len(t.Classes) {
		return nil, fmt.Errorf("confusion table %s: %d rows for %d classes", t.PairKey, len(t.Matrix), len(t.Classes))
	}
	for i, row := range t.Matrix {
		if len(row) != len(t.Classes) {
			return nil, fmt.Errorf("confusion table %s: row %d has %d columns, want %d", t.PairKey, i, len(row), len(t.Classes))
		}
		c.counts.SetRow(i, row)
	}
	return c, nil
}

func newConfusion(key model.PairKey, classes []string) *Confusion {
	c := &Confusion{
		Key:     key,
		classes: classes,
		index:   make(map[string]int, len(classes)),
	}
	for i, class := range classes {
		c.index[class] = i
	}
	if n := len(classes); n > 0 {
		c.counts = mat.NewDense(n, n, nil)
	}
	return c
}

// Classes returns the ordered class list indexing both axes
func (c *Confusion) Classes() []string {
	out := make([]string, len(c.classes))
	copy(out, c.classes)
	return out
}

// Dim returns the number of classes
func (c *Confusion) Dim() int {
	return len(c.classes)
}

// Empty reports whether the matrix has no classes
func (c *Confusion) Empty() bool {
	return len(c.classes) == 0
}

// At returns the cell for a gold and predicted class, 0 for unknown classes
func (c *Confusion) At(gold, predicted string) float64 {
	gi, ok := c.index[gold]
	if !ok {
		return 0
	}
	pi, ok := c.index[predicted]
	if !ok {
		return 0
	}
	return c.counts.At(gi, pi)
}

// Total returns the sum of all cells
func (c *Confusion) Total() float64 {
	if c.counts == nil {
		return 0
	}
	return mat.Sum(c.counts)
}

// Table converts the matrix to its serialisable form
func (c *Confusion) Table() model.ConfusionTable {
	t := model.ConfusionTable{
		PairKey: c.Key,
		Classes: c.Classes(),
		Matrix:  make([][]float64, len(c.classes)),
	}
	for i := range c.classes {
		t.Matrix[i] = mat.Row(nil, i, c.counts)
	}
	return t
}

// padded re-expresses the matrix onto a larger class index, zero-filling
// classes it has never seen
func (c *Confusion) padded(index map[string]int, n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i, gold := range c.classes {
		for j, predicted := range c.classes {
			out.Set(index[gold], index[predicted], c.counts.At(i, j))
		}
	}
	return out
}

// Combine re-indexes every matrix onto the union of their classes and returns
// the element-wise mean. Combining nothing, or only empty matrices, yields an
// empty matrix.
func Combine(key model.PairKey, tables []*Confusion) *Confusion {
	seen := make(map[string]struct{})
	for _, t := range tables {
		for _, class := range t.classes {
			seen[class] = struct{}{}
		}
	}

	combined := newConfusion(key, sortedKeys(seen))
	if combined.counts == nil {
		return combined
	}

	n := combined.Dim()
	for _, t := range tables {
		if t.Empty() {
			continue
		}
		combined.counts.Add(combined.counts, t.padded(combined.index, n))
	}
	combined.counts.Scale(1/float64(len(tables)), combined.counts)
	return combined
}

// CombineAll averages every matrix across all models and techniques
func CombineAll(tables []*Confusion) *Confusion {
	return Combine(model.PairKey{Model: "all", Technique: "all"}, tables)
}

// CombineTechnique averages the matrices of every model for one technique
func CombineTechnique(tables []*Confusion, technique string) *Confusion {
	var subset []*Confusion
	for _, t := range tables {
		if t.Key.Technique == technique {
			subset = append(subset, t)
		}
	}
	return Combine(model.PairKey{Model: "all", Technique: technique}, subset)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
