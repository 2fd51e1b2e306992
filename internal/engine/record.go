package engine

import (
	"slices"

	"github.com/shamburg82/J-VIBE/internal/detect"
)

// Decision is the branch the state machine took for a chunk.
type Decision string

const (
	DecisionInherited     Decision = "inherited"
	DecisionNewContext    Decision = "new_context"
	DecisionNewContextSet Decision = "new_context_set"
	DecisionTOC           Decision = "toc_special_case"
)

// Where a record's title came from.
const (
	TitleFromHeader  = "header"
	TitleFromPattern = "pattern"
	TitleFromContext = "context"
	TitleFromJudge   = "judge"
	TitleFromCache   = "cached"
)

// Context is the TLF output currently being read.
type Context struct {
	TLFType         string   `json:"tlf_type,omitempty"`
	OutputNumber    string   `json:"output_number,omitempty"`
	Title           string   `json:"title,omitempty"`
	Population      string   `json:"population,omitempty"`
	ClinicalDomain  string   `json:"clinical_domain,omitempty"`
	TreatmentGroups []string `json:"treatment_groups"`
	OriginIndex     int      `json:"origin_index"`
}

func (c *Context) clone() *Context {
	if c == nil {
		return nil
	}
	cp := *c
	cp.TreatmentGroups = slices.Clone(c.TreatmentGroups)
	if cp.TreatmentGroups == nil {
		cp.TreatmentGroups = []string{}
	}
	return &cp
}

// HistoryEntry is one committed transition.
type HistoryEntry struct {
	Context    Context `json:"context"`
	Confidence float64 `json:"confidence"`
	Index      int     `json:"sequence_index"`
}

// Record is the classification of one chunk.
type Record struct {
	Index           int      `json:"sequence_index"`
	TLFType         string   `json:"tlf_type,omitempty"`
	OutputNumber    string   `json:"output_number,omitempty"`
	Title           string   `json:"title,omitempty"`
	TitleSource     string   `json:"title_source,omitempty"`
	Population      string   `json:"population,omitempty"`
	ClinicalDomain  string   `json:"clinical_domain,omitempty"`
	TreatmentGroups []string `json:"treatment_groups"`

	ContentType string             `json:"content_type"`
	IsHeader    bool               `json:"is_header"`
	IsData      bool               `json:"is_data"`
	IsFootnote  bool               `json:"is_footnote"`
	PageInfo    detect.PageInfo    `json:"page_info"`
	SponsorInfo detect.SponsorInfo `json:"sponsor_info"`

	DocumentContext detect.DocumentContext        `json:"document_context"`
	Domains         map[string]detect.DomainScore `json:"all_domains"`
	MatchedKeywords []string                      `json:"matched_keywords"`

	PatternConfidence   float64 `json:"pattern_confidence"`
	StructureConfidence float64 `json:"structure_confidence"`
	DomainConfidence    float64 `json:"domain_confidence"`
	HeaderConfidence    float64 `json:"header_confidence"`
	JudgeConfidence     float64 `json:"judge_confidence,omitempty"`
	OverallConfidence   float64 `json:"overall_confidence"`

	DetectionMethod string   `json:"detection_method"`
	Decision        Decision `json:"inheritance_decision"`
	Context         *Context `json:"context_snapshot"`
	Transitions     int      `json:"transitions"`
}

// HasIdentity reports whether the record names a specific output.
func (r *Record) HasIdentity() bool {
	return r.TLFType != "" && r.OutputNumber != ""
}

// FromCache reports whether the header cache supplied the record's fields.
func (r *Record) FromCache() bool {
	return r.DetectionMethod == methodCached
}

func (r *Record) toContext(index int) *Context {
	return &Context{
		TLFType:         r.TLFType,
		OutputNumber:    r.OutputNumber,
		Title:           r.Title,
		Population:      r.Population,
		ClinicalDomain:  r.ClinicalDomain,
		TreatmentGroups: slices.Clone(r.TreatmentGroups),
		OriginIndex:     index,
	}
}
