package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shamburg82/J-VIBE/internal/chunker"
	"github.com/shamburg82/J-VIBE/internal/config"
	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/engine"
	"github.com/shamburg82/J-VIBE/internal/extract"
	"github.com/shamburg82/J-VIBE/internal/metrics"
	"github.com/shamburg82/J-VIBE/internal/parser"
	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

const tlfText = "Table 14.3.1\nSummary of Adverse Events\n(Safety Analysis Set)\nn (%) ... data ...\f" +
	"Headache   12 (10.5%)   8 (7.0%)\nNausea   5 (4.4%)   3 (2.6%)\f" +
	"Table 14.1.1\nDemographic and Baseline Characteristics\n(Full Analysis Set)\nAge (years) Mean (SD)\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(t *testing.T, c extract.Completer, cfg WorkerConfig) (*Worker, *JobStore) {
	t.Helper()
	tax := taxonomy.MustDefault()
	var judge *extract.Judge
	if c != nil {
		judge = extract.NewJudge(c, tax)
	}
	jobs := NewJobStore(time.Hour)
	if cfg.Chunk == (chunker.Config{}) {
		cfg.Chunk = chunker.DefaultConfig()
	}
	return NewWorker(detect.New(tax), judge, jobs, metrics.New(), testLogger(), cfg), jobs
}

// gatedChunks counts the chunks of tlfText the judge would be asked about.
func gatedChunks(t *testing.T) int {
	t.Helper()
	p, err := parser.ForFile("tlf.txt", parser.Options{})
	if err != nil {
		t.Fatal(err)
	}
	tree, err := p.Parse(strings.NewReader(tlfText), "tlf.txt")
	if err != nil {
		t.Fatal(err)
	}
	det := detect.New(taxonomy.MustDefault())
	n := 0
	for _, c := range chunker.ChunkTree(tree, chunker.DefaultConfig()) {
		if engine.NeedsJudge(det.Analyze(c)) {
			n++
		}
	}
	return n
}

func TestWorker_ProcessText(t *testing.T) {
	w, jobs := newTestWorker(t, nil, WorkerConfig{})
	job := NewJob("w-1", "tlf.txt", "", []byte(tlfText))
	jobs.Put(job)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalChunks != 3 || snap.Progress.ChunksAnalyzed != 3 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Progress.ChunksJudged != 0 {
		t.Errorf("judge disabled, but %d chunks judged", snap.Progress.ChunksJudged)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash to be recorded")
	}

	recs := job.Records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].OutputNumber != "14.3.1" || recs[1].Decision != engine.DecisionInherited || recs[2].OutputNumber != "14.1.1" {
		t.Errorf("unexpected records: %s/%s/%s", recs[0].OutputNumber, recs[1].Decision, recs[2].OutputNumber)
	}
	if sum := job.Summary(); sum == nil || sum.TotalOutputs != 2 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if job.FileData() != nil {
		t.Error("file data should be released after completion")
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	w, jobs := newTestWorker(t, nil, WorkerConfig{})
	first := NewJob("w-first", "a.txt", "", []byte(tlfText))
	jobs.Put(first)
	w.Process(context.Background(), first)

	second := NewJob("w-second", "b.txt", "", []byte(tlfText))
	jobs.Put(second)
	w.Process(context.Background(), second)

	snap := second.Snapshot()
	if snap.Status != StatusDupSkipped || snap.DuplicateOf != "w-first" {
		t.Errorf("expected duplicate of w-first, got %q %q", snap.Status, snap.DuplicateOf)
	}
	if second.Records() != nil {
		t.Error("duplicate job should carry no records")
	}
}

func TestWorker_UnsupportedFormat(t *testing.T) {
	w, jobs := newTestWorker(t, nil, WorkerConfig{})
	job := NewJob("w-rtf", "tlf.rtf", "", []byte("{\\rtf1}"))
	jobs.Put(job)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || len(snap.Progress.Errors) == 0 {
		t.Errorf("expected failure with an error, got %q %v", snap.Status, snap.Progress.Errors)
	}
}

func TestWorker_JudgeCalledForGatedChunks(t *testing.T) {
	want := gatedChunks(t)
	var calls atomic.Int32
	c := extract.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "OUTPUT_TYPE: unknown\nCLINICAL_DOMAIN: adverse_events\nCONFIDENCE: 0.4", nil
	})
	w, jobs := newTestWorker(t, c, WorkerConfig{MaxJudge: 2})
	job := NewJob("w-judge", "tlf.txt", "", []byte(tlfText))
	jobs.Put(job)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if int(calls.Load()) != want || snap.Progress.ChunksJudged != want {
		t.Errorf("expected %d judge calls, got %d (progress %d)", want, calls.Load(), snap.Progress.ChunksJudged)
	}
	if snap.Progress.JudgeFailures != 0 {
		t.Errorf("unexpected judge failures %d", snap.Progress.JudgeFailures)
	}
}

func TestWorker_JudgeFailuresAreSoft(t *testing.T) {
	tests := []struct {
		name string
		fn   extract.CompleterFunc
	}{
		{"error", func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("connection refused")
		}},
		{"timeout", func(ctx context.Context, prompt string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
		{"unparseable", func(ctx context.Context, prompt string) (string, error) {
			return "I am not sure.", nil
		}},
	}
	want := gatedChunks(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, jobs := newTestWorker(t, tt.fn, WorkerConfig{JudgeTimeout: 20 * time.Millisecond, JudgeAttempts: 1})
			job := NewJob("w-"+tt.name, "tlf.txt", "", []byte(tlfText))
			jobs.Put(job)
			w.Process(context.Background(), job)

			snap := job.Snapshot()
			if snap.Status != StatusCompleted {
				t.Fatalf("judge failure should not fail the job, got %q", snap.Status)
			}
			if snap.Progress.JudgeFailures != want {
				t.Errorf("expected %d judge failures, got %d", want, snap.Progress.JudgeFailures)
			}
			if len(job.Records()) != 3 {
				t.Errorf("expected 3 records, got %d", len(job.Records()))
			}
		})
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	w, jobs := newTestWorker(t, nil, WorkerConfig{})
	job := NewJob("w-cancel", "tlf.txt", "", []byte(tlfText))
	jobs.Put(job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Process(ctx, job)

	if st := job.CurrentStatus(); st != StatusFailed {
		t.Errorf("expected failed on cancelled context, got %q", st)
	}
}

func TestOrchestrator_SubmitAndComplete(t *testing.T) {
	cfg := config.Config{
		WorkerCount:          2,
		MaxQueueSize:         4,
		MaxConcurrentSignals: 2,
		MaxConcurrentExtract: 1,
		DefaultChunkSize:     512,
		DefaultChunkOverlap:  50,
		JobTTL:               time.Hour,
		JudgeTimeout:         time.Second,
		JudgeMaxRetries:      1,
	}
	m := metrics.New()
	o := NewOrchestrator(cfg, detect.New(taxonomy.MustDefault()), nil, m, testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("o-1", "tlf.txt", "", []byte(tlfText))
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob("o-1") != job {
		t.Fatal("submitted job not tracked")
	}

	deadline := time.Now().Add(5 * time.Second)
	for job.CurrentStatus() != StatusCompleted {
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, status %q", job.CurrentStatus())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if o.JudgeEnabled() {
		t.Error("judge should be disabled without a judge")
	}
	if o.JobCount() != 1 {
		t.Errorf("expected 1 tracked job, got %d", o.JobCount())
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, detect.New(taxonomy.MustDefault()), nil, nil, testLogger())

	// Not started, so nothing drains the queue.
	if err := o.Submit(NewJob("q-1", "a.txt", "", nil)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job := NewJob("q-2", "b.txt", "", nil)
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if job.CurrentStatus() != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.CurrentStatus())
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}
