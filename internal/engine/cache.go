package engine

import "slices"

const cacheMinConfidence = 0.7

type cacheKey struct {
	tlfType, number string
}

type cachedHeader struct {
	Title           string
	Population      string
	ClinicalDomain  string
	TreatmentGroups []string
}

// HeaderCache remembers the resolved fields of confident headers keyed by
// (type, number), so a repeated header reuses them.
type HeaderCache struct {
	entries map[cacheKey]cachedHeader
	hits    int
	misses  int
}

// CacheStats is a snapshot of cache use.
type CacheStats struct {
	Size   int `json:"size"`
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

func NewHeaderCache() *HeaderCache {
	return &HeaderCache{entries: make(map[cacheKey]cachedHeader)}
}

// apply substitutes cached fields into rec when its (type, number) has been
// seen. It reports whether there was a hit.
func (c *HeaderCache) apply(rec *Record) bool {
	e, ok := c.entries[cacheKey{rec.TLFType, rec.OutputNumber}]
	if !ok {
		c.misses++
		return false
	}
	c.hits++
	if e.Title != "" {
		rec.Title = e.Title
		rec.TitleSource = TitleFromCache
	}
	rec.Population = firstNonEmpty(e.Population, rec.Population)
	rec.ClinicalDomain = firstNonEmpty(e.ClinicalDomain, rec.ClinicalDomain)
	if len(e.TreatmentGroups) > 0 {
		rec.TreatmentGroups = slices.Clone(e.TreatmentGroups)
	}
	rec.DetectionMethod = methodCached
	return true
}

// store keeps rec when it is a confident header with a full identity.
func (c *HeaderCache) store(rec *Record) {
	if !rec.IsHeader || rec.OverallConfidence <= cacheMinConfidence || !rec.HasIdentity() {
		return
	}
	c.entries[cacheKey{rec.TLFType, rec.OutputNumber}] = cachedHeader{
		Title:           rec.Title,
		Population:      rec.Population,
		ClinicalDomain:  rec.ClinicalDomain,
		TreatmentGroups: slices.Clone(rec.TreatmentGroups),
	}
}

func (c *HeaderCache) Stats() CacheStats {
	return CacheStats{Size: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func (c *HeaderCache) reset() {
	clear(c.entries)
	c.hits, c.misses = 0, 0
}
