package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/fallacia/internal/taxonomy"
)

// NothingLabel is the reserved type name meaning "no fallacy present"
const NothingLabel = "nothing"

// ErrInvalidLabel is returned when a label violates its invariants
var ErrInvalidLabel = errors.New("invalid label")

// Label is one annotated span [Start, End) over a fixed source text
type Label struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Name  string `json:"name"`
}

// NewLabel creates a label, enforcing 0 <= start <= end and a non-empty name
func NewLabel(start, end int, name string) (Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Label{}, fmt.Errorf("%w: empty name", ErrInvalidLabel)
	}
	if start < 0 || end < start {
		return Label{}, fmt.Errorf("%w: span [%d, %d) for %q", ErrInvalidLabel, start, end, name)
	}
	return Label{Start: start, End: end, Name: name}, nil
}

// ClampLabel creates a label from possibly unknown offsets. Negative offsets
// (an unknown location) collapse the span to [0, 0) and an end before the
// start is moved to the start.
func ClampLabel(start, end int, name string) (Label, error) {
	if start < 0 || end < 0 {
		start, end = 0, 0
	}
	if end < start {
		end = start
	}
	return NewLabel(start, end, name)
}

// Len returns the number of character offsets covered by the span
func (l Label) Len() int {
	if l.End <= l.Start {
		return 0
	}
	return l.End - l.Start
}

// Indices returns the offset set {Start, ..., End-1}
func (l Label) Indices() []int {
	indices := make([]int, 0, l.Len())
	for i := l.Start; i < l.End; i++ {
		indices = append(indices, i)
	}
	return indices
}

// Overlap returns the size of the intersection of both index sets
func (l Label) Overlap(other Label) int {
	lo := max(l.Start, other.Start)
	hi := min(l.End, other.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// IsNothing reports whether the label carries the reserved "nothing" type
func (l Label) IsNothing() bool {
	return taxonomy.Normalize(l.Name) == NothingLabel
}

func (l Label) String() string {
	return fmt.Sprintf("%s (%d, %d)", l.Name, l.Start, l.End)
}
