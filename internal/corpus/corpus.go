// Package corpus reads gold and prediction corpora from JSON Lines files and
// aligns prediction instances with the gold instances for the same text.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ppiankov/fallacia/internal/extract"
	"github.com/ppiankov/fallacia/internal/model"
)

// ErrMissingCorpus is returned when a corpus file does not exist
var ErrMissingCorpus = errors.New("corpus not found")

const maxLineBytes = 16 * 1024 * 1024

// record is one JSONL line. Gold files carry extra annotation fields
// (comments, sentences_with_labels) that are ignored.
type record struct {
	Text     string          `json:"text"`
	Response string          `json:"response,omitempty"`
	Labels   json.RawMessage `json:"labels"`
}

// rawLabel accepts either [start, end, name] or {"start", "end", "name"}
type rawLabel struct {
	Start int
	End   int
	Name  string
}

func (r *rawLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Start int    `json:"start"`
			End   int    `json:"end"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = rawLabel(obj)
		return nil
	}

	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("label must have 3 elements, got %d", len(triple))
	}
	if err := json.Unmarshal(triple[0], &r.Start); err != nil {
		return fmt.Errorf("label start: %w", err)
	}
	if err := json.Unmarshal(triple[1], &r.End); err != nil {
		return fmt.Errorf("label end: %w", err)
	}
	if err := json.Unmarshal(triple[2], &r.Name); err != nil {
		return fmt.Errorf("label name: %w", err)
	}
	return nil
}

// Loader reads corpus files
type Loader struct {
	extractor *extract.FallacyExtractor
}

// NewLoader creates a loader that extracts labels from raw responses when a
// prediction record carries no labels
func NewLoader() *Loader {
	return &Loader{
		extractor: extract.NewFallacyExtractor(),
	}
}

// Load reads and parses a corpus file
func (l *Loader) Load(path string) (*model.Corpus, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(path, data)
}

// ReadFile reads a corpus file, reporting absence as ErrMissingCorpus
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCorpus, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return data, nil
}

// Parse decodes JSONL corpus data; source names the corpus in errors
func (l *Loader) Parse(source string, data []byte) (*model.Corpus, error) {
	c := &model.Corpus{Source: source}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: decode record: %w", source, line, err)
		}

		labels, err := l.labels(rec)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}

		c.Instances = append(c.Instances, model.Instance{
			Text:   rec.Text,
			Labels: labels,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", source, err)
	}

	return c, nil
}

func (l *Loader) labels(rec record) ([]model.Label, error) {
	trimmed := bytes.TrimSpace(rec.Labels)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if rec.Response == "" {
			return nil, nil
		}
		return l.extractor.Labels(rec.Response)
	}

	var raws []rawLabel
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}

	labels := make([]model.Label, 0, len(raws))
	for _, r := range raws {
		label, err := model.ClampLabel(r.Start, r.End, r.Name)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}
