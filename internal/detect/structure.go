package detect

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerIndicators = wordSet("protocol", "sponsor", "table", "listing", "figure",
		"page", "of", "date", "population", "confidential")
	explicitTLFRe = regexp.MustCompile(`(?:table|listing|figure)\s+\d+`)
	pageRe        = regexp.MustCompile(`page\s+(\d+)\s+of\s+(\d+)`)

	numberTokenRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	percentRe     = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	statWordRe    = regexp.MustCompile(`\b(?:mean|median|std|n=|95%\s*ci|min|max)\b`)

	footnoteMarkers = []*regexp.Regexp{
		regexp.MustCompile(`^notes?:`),
		regexp.MustCompile(`^\d+\.?\s`),
		regexp.MustCompile(`^\*+\s`),
		regexp.MustCompile(`^†\s`),
		regexp.MustCompile(`^‡\s`),
		regexp.MustCompile(`^abbreviations?:`),
		regexp.MustCompile(`^source:`),
		regexp.MustCompile(`^ci\s*=`),
		regexp.MustCompile(`^n\s*=`),
		regexp.MustCompile(`^data\s+cutoff`),
		regexp.MustCompile(`^program:`),
		regexp.MustCompile(`^produced\s+on`),
	}
	footnoteWords = []string{"abbreviation", "definition", "note", "source",
		"produced", "program", "cutoff", "ci =", "n ="}

	sponsorRe  = regexp.MustCompile(`(?i)sponsor[:\s]+([^\n\r]+)`)
	protocolRe = regexp.MustCompile(`protocol[:\s#]*([a-z0-9\-_]*\d[a-z0-9\-_]*)`)
)

// Structure classifies a chunk as header, data, footnote or plain content
// and pulls out page and sponsor references.
func (d *Detector) Structure(text string) StructureSignal {
	lower := strings.ToLower(strings.TrimSpace(text))
	var sig StructureSignal

	words := strings.Fields(lower)
	hits := 0
	for _, re := range headerIndicators {
		if re.MatchString(lower) {
			hits++
		}
	}
	sig.IsHeader = (hits >= 2 && len(words) < 50) ||
		explicitTLFRe.MatchString(lower) || pageRe.MatchString(lower)

	sig.IsData = isData(lower)
	sig.IsFootnote = isFootnote(lower, sig.IsData)

	switch {
	case sig.IsHeader:
		sig.Confidence = 0.9
	case sig.IsData:
		sig.Confidence = 0.8
	case sig.IsFootnote:
		sig.Confidence = 0.7
	default:
		sig.Confidence = 0.3
	}

	if m := pageRe.FindStringSubmatch(lower); m != nil {
		sig.PageInfo.Current, _ = strconv.Atoi(m[1])
		sig.PageInfo.Total, _ = strconv.Atoi(m[2])
	}
	sig.SponsorInfo = d.sponsorInfo(text, lower)
	return sig
}

func isData(lower string) bool {
	n := 0
	if numberTokenRe.MatchString(lower) {
		n++
	}
	if percentRe.MatchString(lower) {
		n++
	}
	if statWordRe.MatchString(lower) {
		n++
	}
	return n >= 2
}

func isFootnote(lower string, data bool) bool {
	if len(lower) < 5 {
		return false
	}
	for _, re := range footnoteMarkers {
		if re.MatchString(lower) {
			return true
		}
	}

	lines := strings.Split(lower, "\n")
	if len(lines) > 1 {
		defs := 0
		for _, l := range lines {
			l = strings.TrimSpace(l)
			if len(l) > 10 && len(l) < 80 && strings.Contains(l, "=") {
				defs++
			}
		}
		if defs >= 2 {
			return true
		}
	}

	if data {
		return false
	}
	for _, w := range footnoteWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (d *Detector) sponsorInfo(text, lower string) SponsorInfo {
	var info SponsorInfo
	if m := sponsorRe.FindStringSubmatch(text); m != nil {
		info.Sponsor = strings.TrimSpace(m[1])
	} else {
		info.Sponsor = d.knownSponsor(text)
	}
	if m := protocolRe.FindStringSubmatch(lower); m != nil {
		info.Protocol = strings.ToUpper(m[1])
	}
	return info
}

// knownSponsor returns the first taxonomy sponsor named in text, in the
// casing the text uses.
func (d *Detector) knownSponsor(text string) string {
	lower := strings.ToLower(text)
	for _, s := range d.tax.Sponsors {
		i := strings.Index(lower, s)
		if i < 0 {
			continue
		}
		if len(lower) == len(text) {
			return text[i : i+len(s)]
		}
		return s
	}
	return ""
}

func wordSet(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}
