package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shamburg82/J-VIBE/internal/pipeline"
)

var (
	classifySummary bool
	classifyJudge   bool
	classifyTitle   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify a single document and print the records as JSON",
	Long: `Parse, chunk and classify one document without starting the service.

Supported formats: .pdf, .docx, .html, .htm, .md, .markdown, .txt, .csv.

Examples:
  tlfmeta classify t14_3_1.pdf              # One JSON record per chunk
  tlfmeta classify --summary tlf_book.pdf   # Detected outputs and distributions
  tlfmeta classify --judge listing.docx     # Ask the LLM judge about uncertain chunks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, det, err := setup()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("judge") {
			cfg.JudgeEnabled = classifyJudge
		}
		judge, claude, err := newJudge(cfg, det)
		if err != nil {
			return err
		}
		if claude != nil {
			defer claude.Close()
		}

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		jobs := pipeline.NewJobStore(cfg.JobTTL)
		job := pipeline.NewJob(uuid.NewString(), filepath.Base(path), classifyTitle, data)
		jobs.Put(job)
		pipeline.NewWorker(det, judge, jobs, nil, log, pipeline.NewWorkerConfig(cfg)).Process(cmd.Context(), job)

		snap := job.Snapshot()
		if snap.Status != pipeline.StatusCompleted {
			return fmt.Errorf("classify %s: %s: %s", path, snap.Status, strings.Join(snap.Progress.Errors, "; "))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if classifySummary {
			return enc.Encode(job.Summary())
		}
		return enc.Encode(job.Records())
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifySummary, "summary", false, "print the document summary instead of per-chunk records")
	classifyCmd.Flags().BoolVar(&classifyJudge, "judge", false, "consult the LLM judge (overrides JUDGE_ENABLED)")
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "document title (default: from the file)")
}
