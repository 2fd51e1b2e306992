package detect

import (
	"regexp"
	"strings"
)

const (
	tocConfidence = 0.95
	tocScanLines  = 5
)

var (
	tocPhrases = []*regexp.Regexp{
		regexp.MustCompile(`\btable\s+of\s+contents\b`),
		regexp.MustCompile(`\blist\s+of\s+(?:tables|figures|listings)\b`),
		regexp.MustCompile(`\bindex\s+of\s+(?:tables|figures|listings)\b`),
	}

	// Statistical markers that only appear in real outputs.
	clinicalMarkers = []*regexp.Regexp{
		regexp.MustCompile(`mean\s*\(\s*sd\s*\)`),
		regexp.MustCompile(`n\s*\(\s*%\s*\)`),
		regexp.MustCompile(`\d+\s*\(\s*\d+\.\d+%\s*\)`),
	}
)

// IsTOC reports whether text is a table-of-contents page: a TOC phrase in
// its first lines and no clinical statistics anywhere.
func (d *Detector) IsTOC(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range clinicalMarkers {
		if re.MatchString(lower) {
			return false
		}
	}

	lines := nonEmptyLines(lower)
	if len(lines) > tocScanLines {
		lines = lines[:tocScanLines]
	}
	for _, l := range lines {
		for _, re := range tocPhrases {
			if re.MatchString(l) {
				return true
			}
		}
	}
	return false
}

func tocPattern() PatternSignal {
	return PatternSignal{
		Title:           "Table of Contents",
		TreatmentGroups: []string{},
		Confidence:      tocConfidence,
		Method:          "toc_detection",
	}
}

func tocDomain() DomainSignal {
	kw := []string{"table of contents"}
	return DomainSignal{
		Primary:    DomainTOC,
		Confidence: tocConfidence,
		All: map[string]DomainScore{
			DomainTOC: {
				Score:           100,
				Confidence:      tocConfidence,
				MatchedKeywords: kw,
				UniqueMatches:   1,
				Multiplier:      1,
			},
		},
		MatchedKeywords: kw,
	}
}
