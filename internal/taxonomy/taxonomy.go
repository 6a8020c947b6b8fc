// Package taxonomy describes the fallacy types that labels may carry and the
// two granularity levels they are grouped into.
package taxonomy

import (
	"strings"

	"golang.org/x/text/cases"
)

// Unknown is the level-1 cluster of names outside the taxonomy
const Unknown = "unknown"

// Nothing is the reserved "no fallacy" type
const Nothing = "nothing"

// Fallacy is one level-2 type with the keywords that identify it in free text
type Fallacy struct {
	Name     string
	Cluster  string // level-1 cluster
	Keywords []string
}

// Fallacies lists every level-2 fallacy type in canonical order
var Fallacies = []Fallacy{
	{Name: "appeal to positive emotion", Cluster: "emotion", Keywords: []string{"emotion"}},
	{Name: "appeal to anger", Cluster: "emotion", Keywords: []string{"anger"}},
	{Name: "appeal to fear", Cluster: "emotion", Keywords: []string{"fear"}},
	{Name: "appeal to pity", Cluster: "emotion", Keywords: []string{"pity"}},
	{Name: "appeal to ridicule", Cluster: "emotion", Keywords: []string{"ridicule"}},
	{Name: "appeal to worse problems", Cluster: "emotion", Keywords: []string{"worse", "problems"}},
	{Name: "causal oversimplification", Cluster: "logic", Keywords: []string{"oversimplification"}},
	{Name: "circular reasoning", Cluster: "logic", Keywords: []string{"circular"}},
	{Name: "equivocation", Cluster: "logic", Keywords: []string{"equivocation"}},
	{Name: "false analogy", Cluster: "logic", Keywords: []string{"analogy"}},
	{Name: "false causality", Cluster: "logic", Keywords: []string{"causality"}},
	{Name: "false dilemma", Cluster: "logic", Keywords: []string{"dilemma"}},
	{Name: "hasty generalization", Cluster: "logic", Keywords: []string{"generalization"}},
	{Name: "slippery slope", Cluster: "logic", Keywords: []string{"slippery", "slope"}},
	{Name: "straw man", Cluster: "logic", Keywords: []string{"straw"}},
	{Name: "fallacy of division", Cluster: "logic", Keywords: []string{"division"}},
	{Name: "ad hominem", Cluster: "credibility", Keywords: []string{"hominem"}},
	{Name: "ad populum", Cluster: "credibility", Keywords: []string{"populum"}},
	{Name: "appeal to (false) authority", Cluster: "credibility", Keywords: []string{"authority"}},
	{Name: "appeal to nature", Cluster: "credibility", Keywords: []string{"nature"}},
	{Name: "appeal to tradition", Cluster: "credibility", Keywords: []string{"tradition"}},
	{Name: "guilt by association", Cluster: "credibility", Keywords: []string{"association"}},
	{Name: "tu quoque", Cluster: "credibility", Keywords: []string{"quoque"}},
}

// Level1Clusters lists the coarse clusters
var Level1Clusters = []string{Nothing, "emotion", "logic", "credibility"}

var level1 = func() map[string]string {
	m := make(map[string]string, len(Fallacies)+1)
	m[Nothing] = Nothing
	for _, f := range Fallacies {
		m[f.Name] = f.Cluster
	}
	return m
}()

// Normalize returns the trimmed, case-folded form of a type name. Every
// case-insensitive comparison of type names goes through it.
// A cases.Caser is stateful, so one is created per call.
func Normalize(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Cluster maps a name to its class at the given level. Level 1 returns the
// coarse cluster (Unknown for names outside the taxonomy); any other level
// returns the normalized name itself.
func Cluster(name string, level int) string {
	n := Normalize(name)
	if level != 1 {
		return n
	}
	if c, ok := level1[n]; ok {
		return c
	}
	return Unknown
}

// Classifier returns a function mapping names to classes at a fixed level
func Classifier(level int) func(string) string {
	return func(name string) string {
		return Cluster(name, level)
	}
}

// Known reports whether name is a level-2 type or "nothing"
func Known(name string) bool {
	_, ok := level1[Normalize(name)]
	return ok
}
