package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/shamburg82/J-VIBE/internal/chunker"
	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/doctree"
	"github.com/shamburg82/J-VIBE/internal/engine"
	"github.com/shamburg82/J-VIBE/internal/extract"
	"github.com/shamburg82/J-VIBE/internal/metrics"
	"github.com/shamburg82/J-VIBE/internal/parser"
)

// WorkerConfig bounds a worker's concurrency and judge behavior.
type WorkerConfig struct {
	Chunk         chunker.Config
	Parser        parser.Options
	MaxSignals    int
	MaxJudge      int
	JudgeTimeout  time.Duration
	JudgeAttempts int
}

// Worker processes a single document job.
type Worker struct {
	det     *detect.Detector
	judge   *extract.Judge // nil when the judge is disabled
	jobs    *JobStore
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     WorkerConfig
}

func NewWorker(det *detect.Detector, judge *extract.Judge, jobs *JobStore, m *metrics.Metrics, log *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = 1
	}
	if cfg.MaxJudge <= 0 {
		cfg.MaxJudge = 1
	}
	if cfg.JudgeAttempts <= 0 {
		cfg.JudgeAttempts = MaxRetries
	}
	if cfg.JudgeTimeout <= 0 {
		cfg.JudgeTimeout = 30 * time.Second
	}
	return &Worker{det: det, judge: judge, jobs: jobs, metrics: m, log: log, cfg: cfg}
}

// Process runs the full classification pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	status := w.run(ctx, log, job)
	job.SetStatus(status, string(status))
	w.metrics.ObserveJob(string(status))
}

func (w *Worker) run(ctx context.Context, log *slog.Logger, job *Job) JobStatus {
	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.cfg.Parser)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		return StatusFailed
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		return StatusFailed
	}
	if job.Title != "" {
		tree.Title = job.Title
	}

	// Phase 1.5: Dedup against completed jobs by parsed-text hash.
	hash := ContentHashHex([]byte(flattenTreeText(tree)))
	job.SetContentHash(hash)
	if prev := w.jobs.FindCompleted(hash, job.ID); prev != "" {
		log.Info("duplicate document, skipping", "existing_job_id", prev)
		job.MarkDuplicate(prev)
		return StatusDupSkipped
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks := chunker.ChunkTree(tree, w.cfg.Chunk)
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))
	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		return StatusFailed
	}

	// Phase 3: Per-chunk signals are independent, so analyze in parallel.
	job.SetStatus(StatusAnalyzing, "analyzing")
	inputs, err := w.analyze(ctx, job, chunks)
	if err != nil {
		log.Error("analysis interrupted", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		return StatusFailed
	}

	// Phase 4: Ask the judge about uncertain chunks.
	if w.judge != nil {
		job.SetStatus(StatusJudging, "judging")
		if err := w.judgeAll(ctx, log, job, chunks, inputs); err != nil {
			log.Error("judging interrupted", "error", err)
			job.AddError(fmt.Sprintf("judge: %s", err))
			return StatusFailed
		}
	}

	// Phase 5: The fold is sequential and starts from a clean engine.
	job.SetStatus(StatusClassifying, "classifying")
	eng := engine.New(engine.WithDetector(w.det), engine.WithLogger(log))
	eng.Reset()
	records := eng.ProcessSignals(inputs)
	summary := eng.Summary()
	job.SetResult(records, summary)
	w.metrics.ObserveRecords(records)

	log.Info("classification complete",
		"records", len(records),
		"outputs", summary.TotalOutputs,
		"cache_hits", summary.Cache.Hits,
	)
	return StatusCompleted
}

func (w *Worker) analyze(ctx context.Context, job *Job, chunks []doctree.Chunk) ([]engine.Input, error) {
	inputs := make([]engine.Input, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.MaxSignals)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inputs[i].Signals = w.det.Analyze(c)
			job.IncrChunksAnalyzed()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// judgeAll fills in judgments for gated chunks. Judge failures are soft;
// only cancellation of ctx stops the phase.
func (w *Worker) judgeAll(ctx context.Context, log *slog.Logger, job *Job, chunks []doctree.Chunk, inputs []engine.Input) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.MaxJudge)
	for i := range inputs {
		if !engine.NeedsJudge(inputs[i].Signals) {
			w.metrics.ObserveJudge(metrics.JudgeSkipped, 0)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			j, outcome, took := w.judgeChunk(gctx, log, i, chunks[i].Text)
			w.metrics.ObserveJudge(outcome, took)
			job.AddJudged(j != nil)
			inputs[i].Judgment = j
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// judgeChunk calls the judge with a per-call timeout, retrying retryable
// errors with backoff. It returns nil on any failure.
func (w *Worker) judgeChunk(ctx context.Context, log *slog.Logger, idx int, text string) (*extract.Judgment, string, time.Duration) {
	start := time.Now()
	j, err := retry.DoWithData(
		func() (*extract.Judgment, error) {
			callCtx, cancel := context.WithTimeout(ctx, w.cfg.JudgeTimeout)
			defer cancel()
			return w.judge.Judge(callCtx, text)
		},
		retry.Context(ctx),
		retry.Attempts(uint(w.cfg.JudgeAttempts)),
		retry.RetryIf(IsRetryable),
		retry.DelayType(judgeDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retryable judge error", "chunk", idx, "attempt", n, "error", err)
		}),
	)
	took := time.Since(start)

	switch {
	case err == nil:
		return j, metrics.JudgeOK, took
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("judge timed out", "chunk", idx, "timeout", w.cfg.JudgeTimeout)
		return nil, metrics.JudgeTimeout, took
	default:
		log.Warn("judge failed, continuing without judgment", "chunk", idx, "error", err)
		return nil, metrics.JudgeError, took
	}
}

// flattenTreeText extracts all text from a DocTree into a single string for hashing.
func flattenTreeText(tree *doctree.DocTree) string {
	var lines []string
	for _, n := range tree.Children {
		lines = append(lines, n.Lines()...)
	}
	return strings.Join(lines, "\n")
}
