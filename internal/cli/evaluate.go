package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/pipeline"
)

var (
	goldPath       string
	predictionsDir string
	filePattern    string
	models         []string
	techniques     []string
	useSpans       bool
	pooled         bool
	alignment      string
	emptyPrecision float64
	level          int
	workers        int
	outJSON        string
	outMD          string
	outCSV         string
	noCache        bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score every (model, technique) prediction corpus against the gold corpus",
	Long: `Evaluate loads the gold corpus and, for every configured model and
prompting technique, the prediction corpus found at
<predictions-dir>/<pattern>. It reports precision, recall and F1 per pair and
confusion matrices per pair, per technique and over all pairs.

Pairs without a prediction file are skipped with a warning.

Example:
  fallacia evaluate --gold data/gold_standard_dataset.jsonl --predictions-dir data/responses
  fallacia evaluate --models Falcon,Llama --techniques zero-shot,few-shot --spans
  fallacia evaluate --level 1 --md report.md --csv scores.csv`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()

	// Input flags
	f.StringVar(&goldPath, "gold", "", "gold corpus (JSONL)")
	f.StringVar(&predictionsDir, "predictions-dir", "", "directory holding prediction corpora")
	f.StringVar(&filePattern, "pattern", "", "prediction file name pattern with {model} and {technique}")
	f.StringSliceVar(&models, "models", nil, "models to evaluate")
	f.StringSliceVar(&techniques, "techniques", nil, "techniques to evaluate (zero-shot, few-shot, Automatic-CoT, generated-knowledge)")

	// Scoring flags
	f.BoolVar(&useSpans, "spans", false, "weight type matches by span overlap")
	f.BoolVar(&pooled, "pooled", false, "average over all labels instead of per instance")
	f.StringVar(&alignment, "alignment", "", "pair predictions with gold instances by 'key' (text) or 'position'")
	f.Float64Var(&emptyPrecision, "empty-precision", 0, "precision of an instance with no predicted labels (0 or 1)")
	f.IntVar(&level, "level", 0, "taxonomy level for confusion matrices (1 = clusters, 2 = types)")
	f.IntVar(&workers, "workers", 0, "pairs evaluated concurrently")

	// Output flags
	f.StringVar(&outJSON, "json", "", "output JSON path")
	f.StringVar(&outMD, "md", "", "output Markdown path (optional)")
	f.StringVar(&outCSV, "csv", "", "output CSV score table path (optional)")
	f.BoolVar(&noCache, "no-cache", false, "disable the pair result cache")
}

// applyFlags overrides configuration with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	f := cmd.Flags()
	if f.Changed("gold") {
		cfg.Data.GoldPath = goldPath
	}
	if f.Changed("predictions-dir") {
		cfg.Data.PredictionsDir = predictionsDir
	}
	if f.Changed("pattern") {
		cfg.Data.FilePattern = filePattern
	}
	if f.Changed("models") {
		cfg.Data.Models = models
	}
	if f.Changed("techniques") {
		cfg.Data.Techniques = techniques
	}
	if f.Changed("spans") {
		cfg.Evaluation.UseSpans = useSpans
	}
	if f.Changed("pooled") {
		cfg.Evaluation.Pooled = pooled
	}
	if f.Changed("alignment") {
		cfg.Evaluation.Alignment = alignment
	}
	if f.Changed("empty-precision") {
		cfg.Evaluation.EmptyPredictionPrecision = emptyPrecision
	}
	if f.Changed("level") {
		cfg.Evaluation.Level = level
	}
	if f.Changed("workers") {
		cfg.Concurrency.Workers = workers
	}
	if f.Changed("json") {
		cfg.Output.JSONPath = outJSON
	}
	if f.Changed("md") {
		cfg.Output.MarkdownPath = outMD
	}
	if f.Changed("csv") {
		cfg.Output.CSVPath = outCSV
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if verbose {
		cfg.Output.Verbose = true
	}
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	shutdown, err := setupTracing()
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Gold: %s\n", cfg.Data.GoldPath)
		fmt.Fprintf(os.Stderr, "Predictions: %s\n", cfg.Data.PredictionsDir)
		fmt.Fprintf(os.Stderr, "Pairs: %d\n", len(cfg.Pairs()))
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, newLogger())

	report, err := p.Evaluate(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Scored %d pairs\n", len(report.Scores))
		if len(report.Skipped) > 0 {
			fmt.Fprintf(os.Stderr, "✓ Skipped %d pairs without predictions\n", len(report.Skipped))
		}
		if len(report.Failed) > 0 {
			fmt.Fprintf(os.Stderr, "✗ %d pairs failed\n", len(report.Failed))
		}
	}

	if err := p.RenderReport(report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	pipeline.NewRenderer().RenderSummary(cmd.OutOrStdout(), report)
	return nil
}
