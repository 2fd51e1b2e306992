package detect

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	anchoredTypeConfidence = 0.9
	typeConfidence         = 0.7
	inferredConfidence     = 0.6

	numberScanLines = 4
	titleScanLines  = 5
	maxGroupLen     = 60
)

var (
	numberRe       = regexp.MustCompile(`(?:table|listing|figure)\s+(\d+(?:\.\d+){1,4})(?:\s|$|:)`)
	shortNumberRe  = regexp.MustCompile(`\b[tlf]-(\d+(?:\.\d+){1,4})(?:\s|$|:)`)
	bareNumberRe   = regexp.MustCompile(`^(\d+(?:\.\d+){1,4})(?:\s|$)`)
	numberLineRe   = regexp.MustCompile(`^(?:table|listing|figure)?\s*\d+(?:\.\d+)*`)
	popParenRe     = regexp.MustCompile(`^\([^)]*(?:analysis|population|set|safety|itt|pp|fas)[^)]*\)`)
	dateRe         = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b`)
	digitsRe       = regexp.MustCompile(`\d+`)
	numPercentRe   = regexp.MustCompile(`\d+\s*\(\s*\d+(?:\.\d+)?%?\s*\)`)
	tabularMarkers = []*regexp.Regexp{
		regexp.MustCompile(`n\s*\(\s*%\s*\)`),
		regexp.MustCompile(`mean\s*\(\s*sd\s*\)`),
		regexp.MustCompile(`\bmedian\b`),
		regexp.MustCompile(`\bmin\s*,\s*max\b`),
		regexp.MustCompile(`95%\s*ci`),
	}
	titleMetaWords = []string{"page", "protocol", "sponsor", "date", "confidential"}
)

// Pattern extracts type, number, title, population and treatment groups
// from a single chunk using the taxonomy's regex tables.
func (d *Detector) Pattern(text string) PatternSignal {
	if d.IsTOC(text) {
		return tocPattern()
	}

	sig := PatternSignal{Method: "pattern", TreatmentGroups: []string{}}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return sig
	}

	for _, typ := range d.tax.Types {
		for i, re := range typ.Patterns {
			if !re.MatchString(lower) {
				continue
			}
			conf := typeConfidence
			if typ.Anchored[i].MatchString(lower) {
				conf = anchoredTypeConfidence
			}
			if conf > sig.Confidence {
				sig.TLFType = typ.Name
				sig.Confidence = conf
			}
		}
	}
	if sig.TLFType == "" && looksTabular(lower) {
		sig.TLFType = "table"
		sig.Confidence = inferredConfidence
	}

	lines := nonEmptyLines(text)
	sig.OutputNumber = outputNumber(lines)
	sig.Title = d.title(lines)
	sig.Population = d.population(lower)
	sig.TreatmentGroups = d.treatmentGroups(lower)
	return sig
}

func looksTabular(lower string) bool {
	if len(strings.Fields(lower)) <= 10 {
		return false
	}
	for _, re := range tabularMarkers {
		if re.MatchString(lower) {
			return true
		}
	}
	return len(numPercentRe.FindAllStringIndex(lower, -1)) > 2
}

// outputNumber looks for a dotted output number in the first lines only.
func outputNumber(lines []string) string {
	head := lines
	if len(head) > numberScanLines {
		head = head[:numberScanLines]
	}
	for _, l := range head {
		l = strings.ToLower(l)
		for _, re := range []*regexp.Regexp{numberRe, shortNumberRe} {
			if m := re.FindStringSubmatch(l); m != nil && validNumber(m[1], 2, 5, 3) {
				return m[1]
			}
		}
	}

	// A bare number is only trusted as a short first line.
	if len(lines) > 0 && len(lines[0]) < 20 {
		if m := bareNumberRe.FindStringSubmatch(lines[0]); m != nil && validNumber(m[1], 2, 4, 2) {
			return m[1]
		}
	}
	return ""
}

func validNumber(n string, minParts, maxParts, maxDigits int) bool {
	parts := strings.Split(n, ".")
	if len(parts) < minParts || len(parts) > maxParts {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > maxDigits {
			return false
		}
	}
	return true
}

func (d *Detector) title(lines []string) string {
	seen := 0
	for _, line := range lines {
		if seen == titleScanLines {
			break
		}
		seen++
		if d.isTitle(line) {
			return line
		}
	}
	return ""
}

func (d *Detector) isTitle(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range titleMetaWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	if len(line) < 10 || len(line) > 200 {
		return false
	}
	if numberLineRe.MatchString(lower) || popParenRe.MatchString(lower) || dateRe.MatchString(lower) {
		return false
	}

	words := strings.Fields(line)
	if len(words) > 2 && columnHeaderLike(words) {
		return false
	}
	if float64(len(digitsRe.FindAllStringIndex(line, -1))) > 0.5*float64(len(words)) {
		return false
	}

	if len(words) >= 3 {
		for _, re := range d.tax.TitleIndicators {
			if re.MatchString(lower) {
				return true
			}
		}
	}
	if len(words) >= 2 && len(words) <= 8 && !digitsRe.MatchString(line) &&
		(strings.Contains(line, "&") || strings.Contains(lower, " and ")) {
		return true
	}
	return false
}

// columnHeaderLike is true when every token is short or shouted, as in a
// row of column headings.
func columnHeaderLike(words []string) bool {
	for _, w := range words {
		if len(w) > 4 && !isUpper(w) {
			return false
		}
	}
	return true
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func (d *Detector) population(lower string) string {
	for _, pop := range d.tax.Populations {
		for _, re := range pop.Patterns {
			if re.MatchString(lower) {
				return pop.Label
			}
		}
	}
	return ""
}

func (d *Detector) treatmentGroups(lower string) []string {
	seen := make(map[string]bool)
	for _, re := range d.tax.Treatments {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			g := m[0]
			if len(m) > 1 && m[1] != "" {
				g = m[1]
			}
			g = strings.Join(strings.Fields(g), " ")
			if g == "" || len(g) > maxGroupLen {
				continue
			}
			seen[g] = true
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
