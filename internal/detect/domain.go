package detect

import (
	"strings"

	"github.com/shamburg82/J-VIBE/internal/taxonomy"
)

const (
	repeatWeight   = 0.3
	minDomainConf  = 0.2
	shortTextWords = 20
	shortTextHits  = 3
	shortPenalty   = 0.6
	titlePenalty   = 0.8
	titleCheckConf = 0.7
)

// tally is one pass's result for a single domain.
type tally struct {
	score    float64
	keywords []taxonomy.Keyword
	conf     float64
}

// Domain scores text against every taxonomy domain with a strict
// (word-bounded) and a loose (substring) pass, merges the passes, and
// discounts matches that validation rules find generic. title, when known,
// is used to cross-check confident domains.
func (d *Detector) Domain(text, title string) DomainSignal {
	lower := strings.ToLower(text)
	strict := d.scorePass(lower, false)
	loose := d.scorePass(lower, true)

	merged := make(map[string]tally, len(strict)+len(loose))
	for name, t := range strict {
		merged[name] = t
	}
	for name, t := range loose {
		m, ok := merged[name]
		if !ok {
			merged[name] = t
			continue
		}
		m.score += t.score
		m.keywords = unionKeywords(m.keywords, t.keywords)
		if t.conf > m.conf {
			m.conf = t.conf
		}
		merged[name] = m
	}

	sig := DomainSignal{All: make(map[string]DomainScore), MatchedKeywords: []string{}}
	words := len(strings.Fields(lower))
	titleLower := strings.ToLower(strings.TrimSpace(title))

	var best DomainScore
	for _, dom := range d.tax.Domains {
		t, ok := merged[dom.Name]
		if !ok {
			continue
		}
		mult := validate(dom.Validation, lower, t.keywords)
		if words < shortTextWords && len(t.keywords) > shortTextHits {
			mult *= shortPenalty
		}
		if titleLower != "" && t.conf > titleCheckConf && !titleSupports(titleLower, t.keywords) {
			mult *= titlePenalty
		}

		conf := clamp01(t.conf * mult)
		if conf <= minDomainConf {
			continue
		}
		ds := DomainScore{
			Score:           t.score * mult,
			Confidence:      conf,
			MatchedKeywords: keywordNames(t.keywords),
			UniqueMatches:   len(t.keywords),
			Multiplier:      mult,
		}
		sig.All[dom.Name] = ds

		// Domains are visited in taxonomy order, so ties keep the earlier one.
		if sig.Primary == "" || ds.Confidence > best.Confidence ||
			(ds.Confidence == best.Confidence && ds.Score > best.Score) {
			best = ds
			sig.Primary = dom.Name
		}
	}
	if sig.Primary != "" {
		sig.Confidence = best.Confidence
		sig.MatchedKeywords = best.MatchedKeywords
	}
	return sig
}

func (d *Detector) scorePass(lower string, loose bool) map[string]tally {
	out := make(map[string]tally)
	for _, dom := range d.tax.Domains {
		var t tally
		for _, kw := range dom.Keywords {
			n := kw.Count(lower, loose)
			if n == 0 {
				continue
			}
			t.score += 1 + repeatWeight*float64(n-1)
			t.keywords = append(t.keywords, kw)
		}
		if t.score > 0 {
			t.conf = domainConfidence(dom.Name, len(t.keywords), t.score)
			out[dom.Name] = t
		}
	}
	return out
}

// domainConfidence maps a raw score and the number of distinct keywords to
// a confidence.
func domainConfidence(domain string, unique int, score float64) float64 {
	var conf float64
	switch {
	case score >= 15:
		conf = 0.9
	case score >= 10:
		conf = 0.8
	case score >= 5:
		conf = 0.7
	case score >= 3:
		conf = 0.6
	case score >= 1:
		conf = 0.4
	}

	switch {
	case unique >= 5:
		conf += 0.1
	case unique >= 3:
		conf += 0.05
	case unique == 1:
		conf *= 0.8
	}
	if (domain == "adverse_events" || domain == "demographics") && unique >= 3 {
		conf += 0.1
	}
	return clamp01(conf)
}

// validate returns the multiplier a domain's validation rule applies. A
// domain without an indicator term is penalised when it has fewer than
// MinHits keywords; MinHits of zero means an indicator is always required.
// Boost rewards a domain whose indicators are present.
func validate(v *taxonomy.Validation, lower string, kws []taxonomy.Keyword) float64 {
	if v == nil {
		return 1
	}
	specific := false
	for _, re := range v.Indicators {
		if re.MatchString(lower) {
			specific = true
			break
		}
	}
	if specific {
		if v.Boost > 0 {
			return v.Boost
		}
		return 1
	}
	if v.MinHits == 0 || len(kws) < v.MinHits {
		return v.Penalty
	}
	return 1
}

func titleSupports(title string, kws []taxonomy.Keyword) bool {
	for _, kw := range kws {
		if kw.MatchString(title) {
			return true
		}
	}
	return false
}

func unionKeywords(a, b []taxonomy.Keyword) []taxonomy.Keyword {
	seen := make(map[string]bool, len(a))
	for _, kw := range a {
		seen[kw.Pattern] = true
	}
	for _, kw := range b {
		if !seen[kw.Pattern] {
			seen[kw.Pattern] = true
			a = append(a, kw)
		}
	}
	return a
}

func keywordNames(kws []taxonomy.Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Pattern
	}
	return out
}
