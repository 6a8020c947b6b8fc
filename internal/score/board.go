package score

import (
	"sort"
	"sync"

	"github.com/ppiankov/fallacia/internal/model"
)

// ScoreBoard holds the precision, recall and F1 of every evaluated pair.
// Writes are last-write-wins per key and safe for concurrent use.
type ScoreBoard struct {
	mu      sync.RWMutex
	entries map[model.PairKey]model.ScoreEntry
}

// NewScoreBoard creates an empty score board
func NewScoreBoard() *ScoreBoard {
	return &ScoreBoard{
		entries: make(map[model.PairKey]model.ScoreEntry),
	}
}

// Record stores precision and recall for a pair, computing F1
func (b *ScoreBoard) Record(key model.PairKey, precision, recall float64) model.ScoreEntry {
	return b.RecordEntry(model.ScoreEntry{
		PairKey:   key,
		Precision: precision,
		Recall:    recall,
	})
}

// RecordEntry stores a full entry, overwriting its F1 with the value derived
// from its precision and recall
func (b *ScoreBoard) RecordEntry(entry model.ScoreEntry) model.ScoreEntry {
	entry.F1 = F1(entry.Precision, entry.Recall)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[entry.PairKey] = entry
	return entry
}

// Get returns the entry for a pair
func (b *ScoreBoard) Get(key model.PairKey) (model.ScoreEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.entries[key]
	return entry, ok
}

// Len returns the number of recorded pairs
func (b *ScoreBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Entries returns all entries ordered by model, then technique
func (b *ScoreBoard) Entries() []model.ScoreEntry {
	b.mu.RLock()
	entries := make([]model.ScoreEntry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	b.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PairKey.Less(entries[j].PairKey)
	})
	return entries
}

// Rows exports the board as a table: a header row followed by one row per pair
func (b *ScoreBoard) Rows() [][]string {
	rows := [][]string{{"model", "technique", "precision", "recall", "f1"}}
	for _, e := range b.Entries() {
		rows = append(rows, []string{
			e.Model,
			e.Technique,
			formatScore(e.Precision),
			formatScore(e.Recall),
			formatScore(e.F1),
		})
	}
	return rows
}
