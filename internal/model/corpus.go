package model

import (
	"fmt"
	"strings"
)

// Instance is one source text together with the labels annotating it
type Instance struct {
	Text   string  `json:"text"`
	Labels []Label `json:"labels"`
}

// Key returns the alignment key of the instance (its trimmed text)
func (i Instance) Key() string {
	return strings.TrimSpace(i.Text)
}

// Corpus is an ordered sequence of instances for the gold standard or one
// (model, technique) prediction run
type Corpus struct {
	Source    string     `json:"source,omitempty"` // File the corpus was read from
	Instances []Instance `json:"instances"`
}

// Len returns the number of instances
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Instances)
}

// LabelCount returns the total number of labels across all instances
func (c *Corpus) LabelCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, inst := range c.Instances {
		n += len(inst.Labels)
	}
	return n
}

// PairKey identifies one (model, technique) evaluation
type PairKey struct {
	Model     string `json:"model"`
	Technique string `json:"technique"`
}

func (k PairKey) String() string {
	return fmt.Sprintf("%s/%s", k.Model, k.Technique)
}

// Less orders keys by model, then technique
func (k PairKey) Less(other PairKey) bool {
	if k.Model != other.Model {
		return k.Model < other.Model
	}
	return k.Technique < other.Technique
}

// AlignedPair couples a gold instance with the prediction for the same text
type AlignedPair struct {
	Gold       Instance
	Prediction Instance
}
