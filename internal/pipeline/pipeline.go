// Package pipeline runs one evaluation: it scores every configured
// (model, technique) pair against the gold corpus and assembles a report.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/fallacia/internal/cache"
	"github.com/ppiankov/fallacia/internal/corpus"
	"github.com/ppiankov/fallacia/internal/model"
	"github.com/ppiankov/fallacia/internal/score"
	"github.com/ppiankov/fallacia/internal/taxonomy"
	"github.com/ppiankov/fallacia/internal/worker"
)

const tracerName = "github.com/ppiankov/fallacia/internal/pipeline"

// Pipeline orchestrates the complete evaluation
type Pipeline struct {
	config   *model.Config
	loader   *corpus.Loader
	cache    cache.Cache // nil when disabled
	renderer *Renderer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		config:   cfg,
		loader:   corpus.NewLoader(),
		cache:    c,
		renderer: NewRenderer(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithCache replaces the result cache; nil disables caching
func (p *Pipeline) WithCache(c cache.Cache) *Pipeline {
	p.cache = c
	return p
}

// Evaluate scores every configured pair. Only a gold corpus that cannot be
// loaded or a cancelled context fails the run; pairs without a prediction
// corpus are skipped and pairs that cannot be scored are listed as failed.
func (p *Pipeline) Evaluate(ctx context.Context) (*model.Report, error) {
	ctx, span := p.tracer.Start(ctx, "evaluate")
	defer span.End()

	goldBytes, err := corpus.ReadFile(p.config.Data.GoldPath)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load gold corpus: %w", err)
	}
	gold, err := p.loader.Parse(p.config.Data.GoldPath, goldBytes)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load gold corpus: %w", err)
	}

	settings := p.config.Settings()
	settingsKey, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}

	r := &run{
		pipeline:    p,
		gold:        gold,
		goldBytes:   goldBytes,
		settings:    settings,
		settingsKey: settingsKey,
	}

	pairs := p.config.Pairs()
	p.logger.Debug("evaluation started",
		"gold", gold.Source,
		"instances", gold.Len(),
		"pairs", len(pairs),
		"workers", p.config.Concurrency.Workers,
	)

	results := worker.NewBatchProcessor(r, p.config.Concurrency.Workers).ProcessPairs(ctx, pairs)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("evaluation cancelled: %w", err)
	}

	report := &model.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		GoldSource:  gold.Source,
		GoldSize:    gold.Len(),
		Settings:    settings,
	}

	board := score.NewScoreBoard()
	var tables []*score.Confusion

	for _, res := range results {
		switch {
		case errors.Is(res.Error, corpus.ErrMissingCorpus):
			p.logger.Warn("prediction corpus missing, skipping pair",
				"model", res.Key.Model,
				"technique", res.Key.Technique,
				"path", p.config.PredictionPath(res.Key),
			)
			report.Skipped = append(report.Skipped, res.Key)
		case res.Error != nil:
			p.logger.Error("pair failed",
				"model", res.Key.Model,
				"technique", res.Key.Technique,
				"error", res.Error,
			)
			report.Failed = append(report.Failed, model.PairFailure{PairKey: res.Key, Error: res.Error.Error()})
		default:
			board.RecordEntry(res.Outcome.Score)
			table, err := score.FromTable(res.Outcome.Confusion)
			if err != nil {
				report.Failed = append(report.Failed, model.PairFailure{PairKey: res.Key, Error: err.Error()})
				continue
			}
			tables = append(tables, table)
		}
	}

	report.Scores = board.Entries()
	for _, t := range tables {
		report.Confusion = append(report.Confusion, t.Table())
	}

	if len(tables) > 0 {
		combined := score.CombineAll(tables).Table()
		report.Combined = &combined

		report.ByTechnique = make(map[string]model.ConfusionTable)
		for _, technique := range p.config.Techniques() {
			t := score.CombineTechnique(tables, technique)
			if !t.Empty() {
				report.ByTechnique[technique] = t.Table()
			}
		}
	}

	span.SetAttributes(
		attribute.String("run.id", report.RunID),
		attribute.Int("pairs.scored", len(report.Scores)),
		attribute.Int("pairs.skipped", len(report.Skipped)),
		attribute.Int("pairs.failed", len(report.Failed)),
	)
	p.logger.Debug("evaluation finished",
		"scored", len(report.Scores),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)

	return report, nil
}

// RenderReport renders the report to every configured output
func (p *Pipeline) RenderReport(report *model.Report) error {
	out := p.config.Output

	if out.JSONPath != "" {
		if err := p.renderer.RenderJSON(report, out.JSONPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Debug("wrote report", "format", "json", "path", out.JSONPath)
	}

	if out.MarkdownPath != "" {
		if err := p.renderer.RenderMarkdown(report, out.MarkdownPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Debug("wrote report", "format", "markdown", "path", out.MarkdownPath)
	}

	if out.CSVPath != "" {
		if err := p.renderer.RenderCSV(report, out.CSVPath); err != nil {
			return fmt.Errorf("render CSV: %w", err)
		}
		p.logger.Debug("wrote report", "format", "csv", "path", out.CSVPath)
	}

	return nil
}

// run holds the state shared by every pair of one evaluation. It is
// read-only once the pair jobs start.
type run struct {
	pipeline    *Pipeline
	gold        *model.Corpus
	goldBytes   []byte
	settings    model.Settings
	settingsKey []byte
}

// EvaluatePair scores one pair, consulting the result cache first
func (r *run) EvaluatePair(ctx context.Context, key model.PairKey) (*model.PairOutcome, error) {
	p := r.pipeline
	_, span := p.tracer.Start(ctx, "evaluate.pair", trace.WithAttributes(
		attribute.String("model", key.Model),
		attribute.String("technique", key.Technique),
	))
	defer span.End()

	path := p.config.PredictionPath(key)
	data, err := corpus.ReadFile(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cacheKey := cache.Key([]byte(key.String()), r.goldBytes, data, r.settingsKey)
	if outcome, ok := r.cached(cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		p.logger.Debug("pair served from cache", "model", key.Model, "technique", key.Technique)
		return outcome, nil
	}

	predictions, err := p.loader.Parse(path, data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	alignment, err := corpus.Align(r.gold, predictions, r.settings.Alignment)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("align %s: %w", key, err)
	}

	result := score.Evaluate(alignment.Pairs, score.OptionsFromSettings(r.settings))
	confusion := score.BuildConfusion(key, alignment.Pairs, taxonomy.Classifier(r.settings.Level))

	outcome := &model.PairOutcome{
		Score: model.ScoreEntry{
			PairKey:   key,
			Precision: result.Precision,
			Recall:    result.Recall,
			F1:        result.F1,
			Instances: len(alignment.Pairs),
			Unmatched: alignment.Unmatched,
		},
		Confusion: confusion.Table(),
	}

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Float64("precision", result.Precision),
		attribute.Float64("recall", result.Recall),
	)

	r.store(cacheKey, outcome)
	return outcome, nil
}

func (r *run) cached(key string) (*model.PairOutcome, bool) {
	c := r.pipeline.cache
	if c == nil {
		return nil, false
	}
	data, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	var outcome model.PairOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		_ = c.Delete(key)
		return nil, false
	}
	return &outcome, true
}

func (r *run) store(key string, outcome *model.PairOutcome) {
	c := r.pipeline.cache
	if c == nil {
		return
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	if err := c.Set(key, data, 0); err != nil {
		r.pipeline.logger.Warn("cache write failed", "error", err)
	}
}
