package detect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	windowBefore   = 3
	windowAfter    = 12
	fallbackWindow = 20
)

var (
	boundaryProtocolRe = regexp.MustCompile(`protocol\s+[a-z0-9\-_]{3,20}`)
	companyRe          = regexp.MustCompile(`\b(?:pharmaceuticals?|biotech|therapeutics?|inc|ltd|corp)\b\.?`)
	docTypeRe          = regexp.MustCompile(`clinical\s+study\s+report|interim\s+analysis|final\s+report|safety\s+report`)
	confidentialRe     = regexp.MustCompile(`confidential|proprietary`)
	cutoffRe           = regexp.MustCompile(`(?:data\s+)?cut[\-\s]*off|as\s+of\s+\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)

	furnitureMarkers = []string{"page ", "confidential", "proprietary",
		"clinical study report", "interim analysis", "final report",
		"cut-off", "as of ", "date:", "abbreviations", "note:", "source:"}
	cutoffDateRes = []*regexp.Regexp{
		regexp.MustCompile(`cut[\-\s]*off[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
		regexp.MustCompile(`as\s+of\s+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
		regexp.MustCompile(`data\s+as\s+of[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`),
	}
	documentTypes = []string{"clinical study report", "interim analysis",
		"final report", "safety report", "efficacy report"}

	headerProtocolRe = regexp.MustCompile(`protocol\s+([a-z0-9\-_]{3,20})`)
	tlfLineRes       = []*regexp.Regexp{
		regexp.MustCompile(`(table|listing|figure)\s+(\d+(?:\.\d+){1,5})\s*[:\-]\s*(.+)`),
		regexp.MustCompile(`(table|listing|figure)\s+(\d+(?:\.\d+){1,5})`),
		regexp.MustCompile(`\b([tlf])-(\d+(?:\.\d+){1,5})`),
	}
	populationLineRes = []*regexp.Regexp{
		regexp.MustCompile(`^\(\s*([^)]{5,50})\s*\)$`),
		regexp.MustCompile(`^\[\s*([^\]]{5,50})\s*\]$`),
		regexp.MustCompile(`(?:population|analysis\s+set|participants?):\s*([a-z\s]{5,30})`),
	}
	titleExclusions = []string{"protocol", "page ", "confidential", "cut-off",
		"pharmaceuticals", "inc.", "ltd.", "corp."}
	dataLeadRe    = regexp.MustCompile(`\d+\s*\(\s*\d+`)
	trailingSepRe = regexp.MustCompile(`[:\-]\s*$`)

	shortTypes = map[string]string{"t": "table", "l": "listing", "f": "figure"}
)

// Boundary finds page/chunk boundary lines and reconstructs the TLF header
// around each one. The highest-confidence reconstruction wins. Without any
// boundary the first lines of the chunk are tried instead.
func (d *Detector) Boundary(text string) HeaderCandidate {
	lines := strings.Split(text, "\n")
	best := HeaderCandidate{BoundaryLine: -1}
	found := false

	for i, l := range lines {
		if !d.isBoundary(normalize(l)) {
			continue
		}
		found = true
		lo := max(0, i-windowBefore)
		hi := min(len(lines), i+windowAfter)
		if hc := d.reconstruct(lines[lo:hi]); hc.Confidence > best.Confidence {
			hc.BoundaryLine = i
			best = hc
		}
	}
	if !found {
		hc := d.reconstruct(lines[:min(len(lines), fallbackWindow)])
		hc.BoundaryLine = -1
		best = hc
	}
	return best
}

func (d *Detector) isBoundary(line string) bool {
	if line == "" {
		return false
	}
	if pageRe.MatchString(line) {
		return true
	}
	hits := 0
	for _, re := range []*regexp.Regexp{boundaryProtocolRe, docTypeRe, confidentialRe, cutoffRe} {
		if re.MatchString(line) {
			hits++
		}
	}
	if d.isCompanyLine(line) {
		hits++
	}
	return hits >= 2
}

func (d *Detector) isCompanyLine(line string) bool {
	if companyRe.MatchString(line) {
		return true
	}
	for _, s := range d.tax.Sponsors {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// headerParts records which header components a reconstruction found.
type headerParts struct {
	protocolLine   int
	tlfLine        int
	populationLine int
	titles         []string
}

// reconstruct walks a window once, collecting the protocol, the TLF
// type+number, the population, and the title fragments between them.
func (d *Detector) reconstruct(window []string) HeaderCandidate {
	var hc HeaderCandidate
	clean := nonEmptyLines(strings.Join(window, "\n"))
	if len(clean) < 2 {
		return hc
	}

	p := headerParts{protocolLine: -1, tlfLine: -1, populationLine: -1}
	for i, line := range clean {
		lower := normalize(line)

		if isFurniture(lower) {
			readDocumentContext(lower, &hc.DocumentContext)
			continue
		}

		if p.protocolLine < 0 {
			if m := headerProtocolRe.FindStringSubmatch(lower); m != nil {
				p.protocolLine = i
				hc.DocumentContext.Protocol = strings.ToUpper(m[1])
				hc.HasContent = true
				continue
			}
		}

		if p.tlfLine < 0 {
			for _, re := range tlfLineRes {
				m := re.FindStringSubmatch(lower)
				if m == nil {
					continue
				}
				p.tlfLine = i
				hc.TLFType = m[1]
				if t, ok := shortTypes[m[1]]; ok {
					hc.TLFType = t
				}
				hc.OutputNumber = m[2]
				if len(m) > 3 {
					// Recover the title's casing from the original line.
					if same := sameLineTitle(line, m[3]); len(same) > 3 {
						p.titles = append(p.titles, same)
					}
				}
				hc.HasContent = true
				break
			}
		}

		for _, re := range populationLineRes {
			if m := re.FindStringSubmatch(lower); m != nil {
				p.populationLine = i
				hc.Population = d.tax.CanonicalPopulation(m[1])
				break
			}
		}

		if p.tlfLine >= 0 && i > p.tlfLine &&
			(p.populationLine < 0 || i < p.populationLine) && isTitleFragment(line, lower) {
			p.titles = append(p.titles, line)
		}
	}

	hc.Title = joinTitle(p.titles)
	hc.Confidence = headerConfidence(hc, p)
	return hc
}

func headerConfidence(hc HeaderCandidate, p headerParts) float64 {
	var conf float64
	if hc.TLFType != "" && hc.OutputNumber != "" {
		conf += 0.5
	}
	if len(hc.Title) > 5 {
		conf += 0.3
	}
	if hc.Population != "" {
		conf += 0.1
	}
	if hc.DocumentContext.Protocol != "" {
		conf += 0.1
	}

	parts := 0
	for _, present := range []bool{p.protocolLine >= 0, p.tlfLine >= 0, len(p.titles) > 0, p.populationLine >= 0} {
		if present {
			parts++
		}
	}
	if parts >= 3 {
		conf += 0.1
	}
	return clamp01(conf)
}

func isFurniture(lower string) bool {
	for _, m := range furnitureMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func readDocumentContext(lower string, dc *DocumentContext) {
	if m := pageRe.FindStringSubmatch(lower); m != nil {
		dc.CurrentPage, _ = strconv.Atoi(m[1])
		dc.TotalPages, _ = strconv.Atoi(m[2])
	}
	for _, re := range cutoffDateRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			dc.DataCutoff = m[1]
			break
		}
	}
	for _, t := range documentTypes {
		if strings.Contains(lower, t) {
			dc.DocumentType = t
			break
		}
	}
}

func isTitleFragment(line, lower string) bool {
	for _, x := range titleExclusions {
		if strings.Contains(lower, x) {
			return false
		}
	}
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 15 {
		return false
	}
	alpha, total := 0, 0
	for _, r := range line {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if float64(alpha) < 0.5*float64(total) {
		return false
	}
	return !dataLeadRe.MatchString(lower)
}

// sameLineTitle returns the trailing title text of a "Table N.N: Title"
// line in its original casing.
func sameLineTitle(line, lowerTitle string) string {
	flat := strings.Join(strings.Fields(line), " ")
	if len(flat) == len(strings.ToLower(flat)) && len(lowerTitle) <= len(flat) {
		return strings.TrimSpace(flat[len(flat)-len(lowerTitle):])
	}
	return strings.TrimSpace(lowerTitle)
}

func joinTitle(parts []string) string {
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(trailingSepRe.ReplaceAllString(strings.TrimSpace(p), ""))
		if len(p) > 2 {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// normalize lowercases a line and collapses its whitespace.
func normalize(line string) string {
	return strings.ToLower(strings.Join(strings.Fields(line), " "))
}
