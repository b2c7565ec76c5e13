// Package cli wires the speech-emotion commands.
package cli

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maastricht-university/speech-emotion/audio/ffprobe"
	"github.com/maastricht-university/speech-emotion/config"
	"github.com/maastricht-university/speech-emotion/logging"
	"github.com/maastricht-university/speech-emotion/orchestrator"
)

// Analyzer runs the pipeline for one file.
type Analyzer interface {
	Run(ctx context.Context, path string, patient orchestrator.Patient) (orchestrator.AnalysisResult, error)
	Forget(path string)
}

// AnalyzerFactory builds the Analyzer and returns a cleanup func.
type AnalyzerFactory func(cfg *config.Root, logger logrus.FieldLogger) (Analyzer, func() error, error)

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

type Option func(*commandContext)

// WithAnalyzerFactory replaces the model-backed pipeline (for tests).
func WithAnalyzerFactory(f AnalyzerFactory) Option {
	return func(c *commandContext) { c.newAnalyzer = f }
}

func WithProbe(f ProbeFunc) Option {
	return func(c *commandContext) { c.probe = f }
}

type commandContext struct {
	configFlag    string
	logLevelFlag  string
	logFormatFlag string

	newAnalyzer AnalyzerFactory
	probe       ProbeFunc

	configOnce sync.Once
	config     *config.Root
	configErr  error
}

func (c *commandContext) ensureConfig() (*config.Root, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(strings.TrimSpace(c.configFlag))
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) *logrus.Logger {
	level, format := c.logLevelFlag, c.logFormatFlag
	if cfg, err := c.ensureConfig(); err == nil {
		if level == "" {
			level = cfg.Pipeline.LogLvl
		}
		if format == "" {
			format = cfg.Pipeline.LogFormat
		}
	}
	return logging.New(level, format, cmd.ErrOrStderr())
}

func defaultAnalyzer(cfg *config.Root, logger logrus.FieldLogger) (Analyzer, func() error, error) {
	models, err := orchestrator.NewModelContext(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return orchestrator.NewPipeline(cfg, models, logger), models.Close, nil
}

func NewRootCommand(opts ...Option) *cobra.Command {
	ctx := &commandContext{newAnalyzer: defaultAnalyzer, probe: ffprobe.Inspect}
	for _, opt := range opts {
		opt(ctx)
	}

	rootCmd := &cobra.Command{
		Use:           "speech-emotion",
		Short:         "Speech emotion analysis pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevelFlag, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&ctx.logFormatFlag, "log-format", "", "Log format: auto, text or json")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
