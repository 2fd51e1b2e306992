package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shamburg82/J-VIBE/internal/config"
	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/extract"
	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tlfmeta",
	Short: "Classify clinical-trial TLF outputs in PDF and document chunks",
	Long: `tlfmeta reads TLF deliverables (tables, listings and figures) and
labels every chunk with the output it belongs to: type, number, title,
population, clinical domain and treatment groups.

Headers are detected from text patterns and layout. Continuation pages
inherit the context of the header they follow.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./tlfmeta.yaml if present)",
	)
	rootCmd.AddCommand(serveCmd, classifyCmd, versionCmd)
}

// setup loads config and builds the logger and detector shared by commands.
func setup() (config.Config, *slog.Logger, *detect.Detector, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, nil, nil, err
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	tax := taxonomy.MustDefault()
	if cfg.TaxonomyFile != "" {
		tax, err = taxonomy.Load(cfg.TaxonomyFile)
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("load taxonomy: %w", err)
		}
		log.Info("loaded taxonomy", "path", cfg.TaxonomyFile)
	}
	return cfg, log, detect.New(tax), nil
}

// newJudge returns a judge backed by the Anthropic API, or nil when the
// judge is disabled.
func newJudge(cfg config.Config, det *detect.Detector) (*extract.Judge, *extract.ClaudeClient, error) {
	if !cfg.JudgeEnabled {
		return nil, nil, nil
	}
	if err := cfg.ValidateJudge(); err != nil {
		return nil, nil, err
	}
	claude := extract.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	return extract.NewJudge(claude, det.Taxonomy()), claude, nil
}
