package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/score"
)

// Renderer writes reports in JSON, Markdown and CSV form
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// RenderMarkdown writes the score table and the combined confusion matrix
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0644)
}

// Markdown formats the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Fallacy Evaluation\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Gold corpus: `%s` (%d instances)\n", report.GoldSource, report.GoldSize)
	fmt.Fprintf(&b, "- Spans: %t, pooled: %t, alignment: %s, level: %d\n\n",
		report.Settings.UseSpans, report.Settings.Pooled, report.Settings.Alignment, report.Settings.Level)

	b.WriteString("## Scores\n\n")
	rows := scoreRows(report)
	if len(rows) == 1 {
		b.WriteString("_No pairs were scored._\n\n")
	} else {
		writeMarkdownTable(&b, rows)
		b.WriteString("\n")
	}

	if len(report.Skipped) > 0 {
		b.WriteString("## Skipped\n\n")
		for _, k := range report.Skipped {
			fmt.Fprintf(&b, "- %s: no prediction corpus\n", k)
		}
		b.WriteString("\n")
	}

	if len(report.Failed) > 0 {
		b.WriteString("## Failed\n\n")
		for _, f := range report.Failed {
			fmt.Fprintf(&b, "- %s: %s\n", f.PairKey, f.Error)
		}
		b.WriteString("\n")
	}

	if report.Combined != nil && !report.Combined.Empty() {
		b.WriteString("## Confusion (mean over all pairs)\n\n")
		b.WriteString("Rows are gold types, columns are predicted types.\n\n")
		writeMarkdownTable(&b, confusionRows(*report.Combined))
		b.WriteString("\n")
	}

	techniques := make([]string, 0, len(report.ByTechnique))
	for t := range report.ByTechnique {
		techniques = append(techniques, t)
	}
	sort.Strings(techniques)
	for _, t := range techniques {
		fmt.Fprintf(&b, "## Confusion: %s\n\n", t)
		writeMarkdownTable(&b, confusionRows(report.ByTechnique[t]))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderCSV writes one row per scored pair
func (r *Renderer) RenderCSV(report *model.Report, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close CSV: %w", closeErr)
		}
	}()
	return r.WriteCSV(f, report)
}

// WriteCSV writes the score table as CSV to w
func (r *Renderer) WriteCSV(w io.Writer, report *model.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(scoreRows(report)); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Fallacy evaluation against %s (%d instances)\n", report.GoldSource, report.GoldSize)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	for _, e := range report.Scores {
		fmt.Fprintf(w, "  %-12s %-20s P=%.4f  R=%.4f  F1=%.4f\n", e.Model, e.Technique, e.Precision, e.Recall, e.F1)
	}
	if len(report.Scores) == 0 {
		fmt.Fprintln(w, "  No pairs were scored")
	}

	if len(report.Skipped) > 0 || len(report.Failed) > 0 {
		fmt.Fprintln(w)
	}
	for _, k := range report.Skipped {
		fmt.Fprintf(w, "  ⚠ skipped %s (no prediction corpus)\n", k)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "  ✗ failed %s: %s\n", f.PairKey, f.Error)
	}
	fmt.Fprintln(w)
}

func scoreRows(report *model.Report) [][]string {
	board := score.NewScoreBoard()
	for _, e := range report.Scores {
		board.RecordEntry(e)
	}
	return board.Rows()
}

func confusionRows(t model.ConfusionTable) [][]string {
	rows := make([][]string, 0, len(t.Classes)+1)
	rows = append(rows, append([]string{"gold \\ predicted"}, t.Classes...))
	for i, class := range t.Classes {
		row := []string{class}
		for _, v := range t.Matrix[i] {
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		rows = append(rows, row)
	}
	return rows
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

// writeMarkdownTable writes rows as a table; the first row is the header.
// Cells may hold free-form type names, so pipes and newlines are escaped.
func writeMarkdownTable(b *strings.Builder, rows [][]string) {
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellEscaper.Replace(cell)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
}
