package extract

import (
	"regexp"
	"strconv"

	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/taxonomy"
)

// Match is a fallacy mention found in a model response.
// Start and End are -1 when the response gives no location.
type Match struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Name    string `json:"name"`
	Keyword string `json:"keyword,omitempty"` // Which keyword matched (e.g., "slope")
}

// Label converts the match to a label, collapsing unknown locations
func (m Match) Label() (model.Label, error) {
	return model.ClampLabel(m.Start, m.End, m.Name)
}

type keywordRule struct {
	name    string
	keyword string
	pattern *regexp.Regexp
}

// FallacyExtractor finds fallacy types mentioned in free-form model output
type FallacyExtractor struct {
	rules      []keywordRule
	nonFallacy *regexp.Regexp
	offsets    *regexp.Regexp
}

// NewFallacyExtractor creates an extractor over the level-2 taxonomy
func NewFallacyExtractor() *FallacyExtractor {
	var rules []keywordRule
	for _, f := range taxonomy.Fallacies {
		for _, kw := range f.Keywords {
			rules = append(rules, keywordRule{
				name:    f.Name,
				keyword: kw,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
	}

	return &FallacyExtractor{
		rules:      rules,
		nonFallacy: regexp.MustCompile(`(?i)\b(?:does not contain|no|none|not|false|nothing|is not part|not necessarily part|no fallacious|not fallacious)\b`),
		offsets:    regexp.MustCompile(`\d+`),
	}
}

// Extract returns every keyword hit in taxonomy order. The first two integers
// after a hit are taken as its start and end offsets. When no fallacy keyword
// matches but the response denies a fallacy, a single "nothing" match at
// [0, 0) is returned.
func (e *FallacyExtractor) Extract(response string) []Match {
	var matches []Match

	for _, rule := range e.rules {
		for _, loc := range rule.pattern.FindAllStringIndex(response, -1) {
			start, end := e.offsetsAfter(response[loc[1]:])
			matches = append(matches, Match{
				Start:   start,
				End:     end,
				Name:    rule.name,
				Keyword: rule.keyword,
			})
		}
	}

	if len(matches) == 0 && e.nonFallacy.MatchString(response) {
		matches = append(matches, Match{Start: 0, End: 0, Name: taxonomy.Nothing, Keyword: "non-fallacy"})
	}

	return dedupeMatches(matches)
}

// Labels extracts matches and converts them to labels
func (e *FallacyExtractor) Labels(response string) ([]model.Label, error) {
	matches := e.Extract(response)
	labels := make([]model.Label, 0, len(matches))
	for _, m := range matches {
		l, err := m.Label()
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// offsetsAfter reads the first two integers of text, -1 for each one missing
func (e *FallacyExtractor) offsetsAfter(text string) (int, int) {
	found := e.offsets.FindAllString(text, 2)
	values := [2]int{-1, -1}
	for i, s := range found {
		if v, err := strconv.Atoi(s); err == nil {
			values[i] = v
		}
	}
	return values[0], values[1]
}

// dedupeMatches removes repeated (start, end, name) hits, keeping the first
func dedupeMatches(matches []Match) []Match {
	type key struct {
		start, end int
		name       string
	}
	seen := make(map[key]bool)
	var unique []Match

	for _, m := range matches {
		k := key{m.Start, m.End, m.Name}
		if !seen[k] {
			seen[k] = true
			unique = append(unique, m)
		}
	}

	return unique
}
