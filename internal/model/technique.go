package model

import (
	"fmt"
	"strings"
)

// Technique identifies a prompting technique whose predictions are evaluated
type Technique string

const (
	TechniqueZeroShot           Technique = "zero-shot"
	TechniqueFewShot            Technique = "few-shot"
	TechniqueAutomaticCoT       Technique = "Automatic-CoT"
	TechniqueGeneratedKnowledge Technique = "generated-knowledge"
)

// AllTechniques returns every known technique in a stable order
func AllTechniques() []Technique {
	return []Technique{
		TechniqueZeroShot,
		TechniqueFewShot,
		TechniqueAutomaticCoT,
		TechniqueGeneratedKnowledge,
	}
}

// ID returns the static identifier used in file names and reports
func (t Technique) ID() string {
	return string(t)
}

// ParseTechnique resolves a case-insensitive technique identifier
func ParseTechnique(s string) (Technique, error) {
	s = strings.TrimSpace(s)
	for _, t := range AllTechniques() {
		if strings.EqualFold(t.ID(), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown technique: %s (supported: %s)", s, strings.Join(TechniqueIDs(AllTechniques()), ", "))
}

// TechniqueIDs converts techniques to their identifiers
func TechniqueIDs(techniques []Technique) []string {
	ids := make([]string, len(techniques))
	for i, t := range techniques {
		ids[i] = t.ID()
	}
	return ids
}
