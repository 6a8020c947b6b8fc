package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ppiankov/fallacia/internal/model"
)

const version = "fallacia v0.2.0"

var (
	cfgFile string
	verbose bool
	tracing bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fallacia",
	Short: "Fallacia - score fallacy labels predicted by language models",
	Long: `Fallacia compares the fallacy labels a language model predicted for a set
of texts with a gold-standard annotation of the same texts.

For every (model, prompting technique) pair it reports precision, recall and
F1, and a gold-type x predicted-type confusion matrix. Labels are compared by
type name, optionally weighted by how much their character spans overlap.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.fallacia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&tracing, "trace", false, "print OpenTelemetry spans to stderr")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".fallacia"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FALLACIA_EVALUATION_USE_SPANS=true sets evaluation.use_spans
	viper.SetEnvPrefix("FALLACIA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so that environment variables can
// override keys that no config file mentions
func setDefaults(cfg *model.Config) {
	viper.SetDefault("data.gold_path", cfg.Data.GoldPath)
	viper.SetDefault("data.predictions_dir", cfg.Data.PredictionsDir)
	viper.SetDefault("data.file_pattern", cfg.Data.FilePattern)
	viper.SetDefault("data.models", cfg.Data.Models)
	viper.SetDefault("data.techniques", cfg.Data.Techniques)

	viper.SetDefault("evaluation.use_spans", cfg.Evaluation.UseSpans)
	viper.SetDefault("evaluation.pooled", cfg.Evaluation.Pooled)
	viper.SetDefault("evaluation.alignment", cfg.Evaluation.Alignment)
	viper.SetDefault("evaluation.empty_prediction_precision", cfg.Evaluation.EmptyPredictionPrecision)
	viper.SetDefault("evaluation.level", cfg.Evaluation.Level)

	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)

	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)

	viper.SetDefault("output.json_path", cfg.Output.JSONPath)
	viper.SetDefault("output.markdown_path", cfg.Output.MarkdownPath)
	viper.SetDefault("output.csv_path", cfg.Output.CSVPath)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig merges defaults, config file and environment into a Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger returns the stderr logger; debug records appear with --verbose
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setupTracing installs a stdout span exporter when --trace is set. The
// returned function flushes pending spans.
func setupTracing() (func(context.Context) error, error) {
	if !tracing {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
