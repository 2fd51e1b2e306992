package engine

import (
	"log/slog"
	"strings"

	"github.com/shamburg82/J-VIBE/internal/detect"
	"github.com/shamburg82/J-VIBE/internal/extract"
)

const (
	earlyCommitHeader   = 0.8
	strongHeader        = 0.8
	commitThreshold     = 0.6
	weakSignal          = 0.5
	continuationNeeded  = 2
	titleDiscoveryBonus = 0.3
	inheritBaseline     = 0.2
	inheritCeiling      = 0.9
	titleOverlapMin     = 0.4
	titleCompareLen     = 10
)

// Input is one chunk's precomputed signals plus an optional judgment.
type Input struct {
	Signals  detect.Signals
	Judgment *extract.Judgment
}

// State is the accumulator of the classification fold: the current context,
// its confidence, the transition history and the header cache. It is not
// safe for concurrent use; chunks must be applied in document order.
type State struct {
	ctx        *Context
	confidence float64
	history    []HistoryEntry
	cache      *HeaderCache
	log        *slog.Logger
}

func NewState(log *slog.Logger) *State {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &State{cache: NewHeaderCache(), log: log}
}

// Reset clears the context, history and cache.
func (s *State) Reset() {
	s.ctx = nil
	s.confidence = 0
	s.history = nil
	s.cache.reset()
}

// Fold applies inputs to s in order and returns one record per input.
func Fold(s *State, inputs []Input) []Record {
	out := make([]Record, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, s.Apply(in))
	}
	return out
}

// Apply classifies one chunk against the current state and advances it.
func (s *State) Apply(in Input) Record {
	sig := in.Signals
	switch {
	case sig.Blank:
		return s.blankRecord(sig)
	case sig.IsTOC:
		return s.tocRecord(sig)
	}

	r := resolve(sig)
	rec := baseRecord(sig, r)

	cached := rec.IsHeader && rec.HasIdentity() && s.cache.apply(&rec)
	if !cached {
		applyJudgment(&rec, in.Judgment)
	}
	if in.Judgment != nil {
		rec.JudgeConfidence = clamp01(in.Judgment.Confidence)
	}
	rec.OverallConfidence = Combine(rec.PatternConfidence, rec.StructureConfidence, rec.DomainConfidence, in.Judgment)

	// An early commit from a strong header wins over the inheritance check.
	// A late commit still reads new_context; Transitions shows it happened.
	switch {
	case sig.Header.Confidence > earlyCommitHeader && rec.HasIdentity() && s.isTransition(&rec):
		s.commit(&rec)
		rec.Decision = DecisionNewContextSet
	case s.shouldInherit(&rec, sig.Continuation):
		s.inherit(&rec)
		rec.Decision = DecisionInherited
	case rec.HasIdentity() && rec.OverallConfidence > commitThreshold && s.isTransition(&rec):
		s.commit(&rec)
		rec.Decision = DecisionNewContext
	default:
		rec.Decision = DecisionNewContext
	}

	if rec.Decision != DecisionInherited {
		s.cache.store(&rec)
	}
	rec.Context = s.ctx.clone()
	rec.Transitions = len(s.history)
	return rec
}

func baseRecord(sig detect.Signals, r resolved) Record {
	return Record{
		Index:           sig.Index,
		TLFType:         r.TLFType,
		OutputNumber:    r.OutputNumber,
		Title:           r.Title,
		TitleSource:     r.TitleSource,
		Population:      r.Population,
		ClinicalDomain:  sig.Domain.Primary,
		TreatmentGroups: r.TreatmentGroups,

		ContentType: sig.Structure.ContentType(),
		IsHeader:    sig.Structure.IsHeader,
		IsData:      sig.Structure.IsData,
		IsFootnote:  sig.Structure.IsFootnote,
		PageInfo:    sig.Structure.PageInfo,
		SponsorInfo: sig.Structure.SponsorInfo,

		DocumentContext: sig.Header.DocumentContext,
		Domains:         sig.Domain.All,
		MatchedKeywords: sig.Domain.MatchedKeywords,

		PatternConfidence:   r.Confidence,
		StructureConfidence: sig.Structure.Confidence,
		DomainConfidence:    sig.Domain.Confidence,
		HeaderConfidence:    sig.Header.Confidence,

		DetectionMethod: r.Method,
	}
}

// isTransition reports whether rec names a different output than the
// current context.
func (s *State) isTransition(rec *Record) bool {
	prev := s.ctx
	if prev == nil {
		return true
	}
	if rec.OutputNumber != "" && prev.OutputNumber != "" && rec.OutputNumber != prev.OutputNumber {
		return true
	}
	a, b := strings.ToLower(rec.Title), strings.ToLower(prev.Title)
	if len(a) > titleCompareLen && len(b) > titleCompareLen && a != b && wordOverlap(a, b) < titleOverlapMin {
		return true
	}
	return rec.TLFType != "" && prev.TLFType != "" && rec.TLFType != prev.TLFType
}

func (s *State) shouldInherit(rec *Record, continuation int) bool {
	if s.ctx == nil || rec.ClinicalDomain == detect.DomainTOC {
		return false
	}
	if rec.HasIdentity() && rec.OverallConfidence > strongHeader {
		return false
	}
	if rec.IsData || rec.IsFootnote {
		return true
	}
	if continuation >= continuationNeeded {
		return true
	}
	return rec.OverallConfidence < weakSignal && rec.TLFType == "" && rec.OutputNumber == "" && !rec.IsHeader
}

// inherit fills the record's empty fields from the context. The context
// title is canonical; a chunk title only counts when the context has none.
func (s *State) inherit(rec *Record) {
	ctx := s.ctx
	bonus := 0.0
	if ctx.Title == "" && rec.Title != "" {
		ctx.Title = rec.Title
		bonus = titleDiscoveryBonus
	} else if ctx.Title != "" {
		rec.Title = ctx.Title
		rec.TitleSource = TitleFromContext
	}

	rec.TLFType = firstNonEmpty(rec.TLFType, ctx.TLFType)
	rec.OutputNumber = firstNonEmpty(rec.OutputNumber, ctx.OutputNumber)
	rec.Population = firstNonEmpty(rec.Population, ctx.Population)
	rec.ClinicalDomain = firstNonEmpty(rec.ClinicalDomain, ctx.ClinicalDomain)
	if len(rec.TreatmentGroups) == 0 && len(ctx.TreatmentGroups) > 0 {
		rec.TreatmentGroups = append([]string(nil), ctx.TreatmentGroups...)
	}
	rec.OverallConfidence = min(rec.OverallConfidence+bonus+inheritBaseline, inheritCeiling)
}

func (s *State) commit(rec *Record) {
	s.ctx = rec.toContext(rec.Index)
	s.confidence = rec.OverallConfidence
	s.history = append(s.history, HistoryEntry{
		Context:    *s.ctx.clone(),
		Confidence: rec.OverallConfidence,
		Index:      rec.Index,
	})
	s.log.Debug("tlf context committed",
		"index", rec.Index,
		"tlf_type", rec.TLFType,
		"output_number", rec.OutputNumber,
		"confidence", rec.OverallConfidence,
	)
}

func (s *State) blankRecord(sig detect.Signals) Record {
	return Record{
		Index:           sig.Index,
		TreatmentGroups: []string{},
		ContentType:     "content",
		Domains:         map[string]detect.DomainScore{},
		MatchedKeywords: []string{},
		DetectionMethod: methodPattern,
		Decision:        DecisionNewContext,
		Context:         s.ctx.clone(),
		Transitions:     len(s.history),
	}
}

// tocRecord describes a table-of-contents chunk without touching state.
func (s *State) tocRecord(sig detect.Signals) Record {
	return Record{
		Index:               sig.Index,
		Title:               tocTitle,
		TitleSource:         TitleFromPattern,
		ClinicalDomain:      detect.DomainTOC,
		TreatmentGroups:     []string{},
		ContentType:         detect.DomainTOC,
		IsHeader:            true,
		PageInfo:            sig.Structure.PageInfo,
		SponsorInfo:         sig.Structure.SponsorInfo,
		Domains:             sig.Domain.All,
		MatchedKeywords:     []string{tocMatchedKeyword},
		PatternConfidence:   tocConfidence,
		StructureConfidence: tocConfidence,
		DomainConfidence:    tocConfidence,
		OverallConfidence:   tocConfidence,
		DetectionMethod:     methodTOC,
		Decision:            DecisionTOC,
		Context:             s.ctx.clone(),
		Transitions:         len(s.history),
	}
}

// wordOverlap is the number of distinct words two titles share, divided
// by the word count of the longer title. Repeated words count toward the
// length but only once toward the overlap.
func wordOverlap(a, b string) float64 {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}
	wb := make(map[string]bool, len(fb))
	for _, w := range fb {
		wb[w] = true
	}
	seen := make(map[string]bool, len(fa))
	common := 0
	for _, w := range fa {
		if wb[w] && !seen[w] {
			common++
		}
		seen[w] = true
	}
	return float64(common) / float64(max(len(fa), len(fb)))
}
