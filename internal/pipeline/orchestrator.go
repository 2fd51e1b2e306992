package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shamburg82/J-VIBE/internal/chunker"
	"github.com/shamburg82/J-VIBE/internal/config"
	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/extract"
	"github.com/shamburg82/J-VIBE/internal/metrics"
	"github.com/shamburg82/J-VIBE/internal/parser"
)

// Orchestrator manages the document classification pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	det     *detect.Detector
	judge   *extract.Judge
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. judge may be nil, in which case
// chunks are classified from their signals alone.
func NewOrchestrator(cfg config.Config, det *detect.Detector, judge *extract.Judge, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		det:     det,
		judge:   judge,
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
}

// NewWorkerConfig derives worker settings from the service config.
func NewWorkerConfig(cfg config.Config) WorkerConfig {
	return WorkerConfig{
		Chunk: chunker.Config{
			ChunkSize:    cfg.DefaultChunkSize,
			ChunkOverlap: cfg.DefaultChunkOverlap,
		},
		Parser:        parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		MaxSignals:    cfg.MaxConcurrentSignals,
		MaxJudge:      cfg.MaxConcurrentExtract,
		JudgeTimeout:  cfg.JudgeTimeout,
		JudgeAttempts: cfg.JudgeMaxRetries,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.det, o.judge, o.jobs, o.metrics, o.log, NewWorkerConfig(o.cfg))
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.SetQueueDepth(len(o.queue))
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.metrics.SetQueueDepth(len(o.queue))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		o.metrics.ObserveJob(string(StatusFailed))
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of tracked jobs.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// JudgeEnabled reports whether chunks may be sent to the judge.
func (o *Orchestrator) JudgeEnabled() bool {
	return o.judge != nil
}
