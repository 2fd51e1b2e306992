// Package engine folds per-chunk signals into TLF metadata records, carrying
// the current output context from one chunk to the next.
package engine

import (
	"log/slog"

	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/doctree"
)

// Engine classifies one document at a time. Signal detection is stateless;
// the fold over those signals is not, so an Engine must not be shared
// between goroutines.
type Engine struct {
	det   *detect.Detector
	state *State
	log   *slog.Logger
}

type Option func(*Engine)

func WithDetector(d *detect.Detector) Option {
	return func(e *Engine) { e.det = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	if e.det == nil {
		e.det = detect.New(nil)
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	e.state = NewState(e.log)
	return e
}

func (e *Engine) Detector() *detect.Detector { return e.det }

// Reset clears all carried state so the next document starts fresh.
func (e *Engine) Reset() { e.state.Reset() }

// Process analyzes and classifies chunks in order, without a judge.
func (e *Engine) Process(chunks []doctree.Chunk) []Record {
	inputs := make([]Input, len(chunks))
	for i, c := range chunks {
		inputs[i] = Input{Signals: e.det.Analyze(c)}
	}
	return e.ProcessSignals(inputs)
}

// ProcessSignals folds precomputed signals, with optional judgments, into
// records. Inputs must be in document order.
func (e *Engine) ProcessSignals(inputs []Input) []Record {
	return Fold(e.state, inputs)
}

// History returns a copy of the committed transitions.
func (e *Engine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(e.state.history))
	for i, h := range e.state.history {
		out[i] = h
		out[i].Context = *h.Context.clone()
	}
	return out
}

// Current returns a copy of the current context, or nil.
func (e *Engine) Current() *Context { return e.state.ctx.clone() }

func (e *Engine) CacheStats() CacheStats { return e.state.cache.Stats() }
