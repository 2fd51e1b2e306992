// Package detect computes the stateless per-chunk signals that feed the
// classification engine. Every function here is pure: the same text always
// yields the same signals, so chunks can be analysed in parallel and in any
// order.
package detect

import (
	"strings"

	"github.com/shamburg82/J-VIBE/internal/doctree"
	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

// DomainTOC is the pseudo-domain assigned to table-of-contents chunks.
const DomainTOC = "table_of_contents"

// PatternSignal is what the regex and keyword pass found in a chunk.
type PatternSignal struct {
	TLFType         string   `json:"tlf_type,omitempty"`
	OutputNumber    string   `json:"output_number,omitempty"`
	Title           string   `json:"title,omitempty"`
	Population      string   `json:"population,omitempty"`
	TreatmentGroups []string `json:"treatment_groups"`
	Confidence      float64  `json:"confidence"`
	Method          string   `json:"method"`
}

// PageInfo is a "Page x of y" reference. Zero values mean absent.
type PageInfo struct {
	Current int `json:"current_page,omitempty"`
	Total   int `json:"total_pages,omitempty"`
}

// SponsorInfo carries the sponsor name and protocol id when present.
type SponsorInfo struct {
	Sponsor  string `json:"sponsor,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// StructureSignal classifies the layout role of a chunk.
type StructureSignal struct {
	IsHeader    bool        `json:"is_header"`
	IsData      bool        `json:"is_data"`
	IsFootnote  bool        `json:"is_footnote"`
	PageInfo    PageInfo    `json:"page_info"`
	SponsorInfo SponsorInfo `json:"sponsor_info"`
	Confidence  float64     `json:"structure_confidence"`
}

// ContentType names the dominant structural role.
func (s StructureSignal) ContentType() string {
	switch {
	case s.IsHeader:
		return "header"
	case s.IsData:
		return "data"
	case s.IsFootnote:
		return "footnote"
	}
	return "content"
}

// DomainScore is the merged strict+loose result for one domain.
type DomainScore struct {
	Score           float64  `json:"score"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords"`
	UniqueMatches   int      `json:"unique_matches"`
	Multiplier      float64  `json:"validation_multiplier"`
}

// DomainSignal is the domain classification of a chunk.
type DomainSignal struct {
	Primary         string                 `json:"primary_domain,omitempty"`
	Confidence      float64                `json:"domain_confidence"`
	All             map[string]DomainScore `json:"all_domains"`
	MatchedKeywords []string               `json:"matched_keywords"`
}

// DocumentContext is gleaned from running page headers and footers.
type DocumentContext struct {
	CurrentPage  int    `json:"current_page,omitempty"`
	TotalPages   int    `json:"total_pages,omitempty"`
	DataCutoff   string `json:"data_cutoff,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
	Protocol     string `json:"protocol,omitempty"`
}

// HeaderCandidate is the best header reconstructed from the chunk's
// boundary windows.
type HeaderCandidate struct {
	TLFType         string          `json:"tlf_type,omitempty"`
	OutputNumber    string          `json:"output_number,omitempty"`
	Title           string          `json:"title,omitempty"`
	Population      string          `json:"population,omitempty"`
	DocumentContext DocumentContext `json:"document_context"`
	Confidence      float64         `json:"confidence"`
	BoundaryLine    int             `json:"boundary_line"`
	HasContent      bool            `json:"has_header_content"`
}

// Signals bundles every detector's output for one chunk.
type Signals struct {
	Index     int             `json:"sequence_index"`
	Blank     bool            `json:"blank,omitempty"`
	IsTOC     bool            `json:"is_toc"`
	Pattern   PatternSignal   `json:"pattern"`
	Structure StructureSignal `json:"structure"`
	Domain    DomainSignal    `json:"domain"`
	Header    HeaderCandidate `json:"header"`

	// Continuation is ContinuationScore of the chunk text.
	Continuation int `json:"continuation_score"`
}

// Detector runs the per-chunk detectors against one taxonomy. It holds no
// mutable state and is safe for concurrent use.
type Detector struct {
	tax *taxonomy.Taxonomy
}

// New returns a Detector for tax, or for the embedded default taxonomy when
// tax is nil.
func New(tax *taxonomy.Taxonomy) *Detector {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	return &Detector{tax: tax}
}

// Taxonomy returns the taxonomy the detector was built with.
func (d *Detector) Taxonomy() *taxonomy.Taxonomy {
	return d.tax
}

// Analyze computes all signals for a chunk.
func (d *Detector) Analyze(c doctree.Chunk) Signals {
	sig := Signals{Index: c.Index}
	if strings.TrimSpace(c.Text) == "" {
		sig.Blank = true
		sig.Pattern = PatternSignal{TreatmentGroups: []string{}, Method: "pattern"}
		sig.Domain = DomainSignal{All: map[string]DomainScore{}, MatchedKeywords: []string{}}
		sig.Header.BoundaryLine = -1
		return sig
	}

	if d.IsTOC(c.Text) {
		sig.IsTOC = true
		sig.Pattern = tocPattern()
		sig.Structure = d.Structure(c.Text)
		sig.Structure.IsHeader = true
		sig.Structure.Confidence = tocConfidence
		sig.Domain = tocDomain()
		sig.Header.BoundaryLine = -1
		return sig
	}

	sig.Pattern = d.Pattern(c.Text)
	sig.Structure = d.Structure(c.Text)
	sig.Header = d.Boundary(c.Text)
	sig.Domain = d.Domain(c.Text, sig.Pattern.Title)
	sig.Continuation = ContinuationScore(c.Text)
	return sig
}

// nonEmptyLines returns the trimmed, non-blank lines of text.
func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
