package engine

import (
	"slices"

	"github.com/shamburg82/J-VIBE/internal/detect"
)

const (
	headerOverride    = 0.6
	titleBorrowBonus  = 0.2
	judgeGateCeiling  = 0.8
	methodPattern     = "pattern"
	methodHeader      = "flexible_header_analysis"
	methodJudge       = "pattern+judge"
	methodCached      = "cached_header"
	methodTOC         = "strict_toc_detection"
	tocTitle          = "Table of Contents"
	tocConfidence     = 0.95
	tocMatchedKeyword = "table of contents"
)

// resolved is the chunk's own identity after the header candidate and the
// pattern signal are reconciled.
type resolved struct {
	TLFType         string
	OutputNumber    string
	Title           string
	TitleSource     string
	Population      string
	TreatmentGroups []string
	Confidence      float64
	Method          string
}

// resolve prefers a confident reconstructed header over the plain pattern
// fields. A weak header can still lend a title the pattern pass missed.
func resolve(sig detect.Signals) resolved {
	p, h := sig.Pattern, sig.Header
	r := resolved{
		TLFType:         p.TLFType,
		OutputNumber:    p.OutputNumber,
		Title:           p.Title,
		Population:      p.Population,
		TreatmentGroups: slices.Clone(p.TreatmentGroups),
		Confidence:      p.Confidence,
		Method:          methodPattern,
	}
	if r.TreatmentGroups == nil {
		r.TreatmentGroups = []string{}
	}
	if r.Title != "" {
		r.TitleSource = TitleFromPattern
	}

	if h.Confidence > headerOverride {
		r.TLFType = firstNonEmpty(h.TLFType, p.TLFType)
		r.OutputNumber = firstNonEmpty(h.OutputNumber, p.OutputNumber)
		r.Population = firstNonEmpty(h.Population, p.Population)
		if h.Title != "" {
			r.Title = h.Title
			r.TitleSource = TitleFromHeader
		}
		r.Confidence = max(h.Confidence, p.Confidence)
		r.Method = methodHeader
		return r
	}

	if r.Title == "" && h.Title != "" {
		r.Title = h.Title
		r.TitleSource = TitleFromHeader
		r.Confidence = min(r.Confidence+titleBorrowBonus, 1)
	}
	return r
}

// NeedsJudge reports whether a chunk is uncertain enough to ask the external
// judge: not a header, not a footnote, and a resolved confidence below 0.8.
func NeedsJudge(sig detect.Signals) bool {
	if sig.Blank || sig.IsTOC || sig.Structure.IsHeader || sig.Structure.IsFootnote {
		return false
	}
	return resolve(sig).Confidence < judgeGateCeiling
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
