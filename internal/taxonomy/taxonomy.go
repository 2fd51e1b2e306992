// Package taxonomy holds the keyword and pattern tables used to classify
// TLF chunks. The tables are data: a default set is embedded in the binary
// and a replacement can be loaded from a YAML file.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk YAML shape.
type File struct {
	Types           []TypeSpec       `yaml:"types"`
	Populations     []PopulationSpec `yaml:"populations"`
	Treatments      []string         `yaml:"treatments"`
	TitleIndicators []string         `yaml:"title_indicators"`
	Sponsors        []string         `yaml:"sponsors"`
	Domains         []DomainSpec     `yaml:"domains"`
}

type TypeSpec struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type PopulationSpec struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
}

type DomainSpec struct {
	Name          string          `yaml:"name"`
	Keywords      []string        `yaml:"keywords"`
	Abbreviations []string        `yaml:"abbreviations"`
	Validation    *ValidationSpec `yaml:"validation"`
}

type ValidationSpec struct {
	Indicators []string `yaml:"indicators"`
	MinHits    int      `yaml:"min_hits"`
	Penalty    float64  `yaml:"penalty"`
	Boost      float64  `yaml:"boost"`
}

// Taxonomy is the compiled, read-only form of a File. It is safe for
// concurrent use.
type Taxonomy struct {
	Types           []Type
	Populations     []Population
	Treatments      []*regexp.Regexp
	TitleIndicators []*regexp.Regexp
	Sponsors        []string
	Domains         []Domain

	domainIndex map[string]int
}

// Type is a TLF output type with its detection patterns.
type Type struct {
	Name     string
	Patterns []*regexp.Regexp
	// Anchored holds the same patterns bound to the start of the text.
	Anchored []*regexp.Regexp
}

// Population is a canonical analysis population and its word-bounded patterns.
type Population struct {
	Label    string
	Patterns []*regexp.Regexp
}

// Domain is a clinical domain with its keyword set and validation rule.
type Domain struct {
	Name       string
	Keywords   []Keyword
	Validation *Validation
}

// Keyword is one canonical pattern compiled for both matching modes.
type Keyword struct {
	Pattern string
	strict  *regexp.Regexp
	loose   *regexp.Regexp
}

// Count returns the number of non-overlapping matches in text. Loose mode
// drops the word boundaries unless the keyword is an abbreviation.
func (k Keyword) Count(text string, loose bool) int {
	re := k.strict
	if loose {
		re = k.loose
	}
	return len(re.FindAllStringIndex(text, -1))
}

// MatchString reports whether the keyword occurs as a whole word in s.
func (k Keyword) MatchString(s string) bool {
	return k.strict.MatchString(s)
}

// Validation discounts a domain whose hits are all generic.
type Validation struct {
	Indicators []*regexp.Regexp
	MinHits    int
	Penalty    float64
	Boost      float64
}

// Default compiles the embedded taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultYAML)
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Taxonomy {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a taxonomy file, or the embedded default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles YAML taxonomy data.
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return Compile(f)
}

// Compile turns a File into a Taxonomy.
func Compile(f File) (*Taxonomy, error) {
	if len(f.Types) == 0 {
		return nil, fmt.Errorf("taxonomy has no output types")
	}
	if len(f.Domains) == 0 {
		return nil, fmt.Errorf("taxonomy has no domains")
	}

	t := &Taxonomy{
		Sponsors:    lowerAll(f.Sponsors),
		domainIndex: make(map[string]int, len(f.Domains)),
	}

	for _, ts := range f.Types {
		typ := Type{Name: strings.ToLower(ts.Name)}
		for _, p := range ts.Patterns {
			re, err := compile(p)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", ts.Name, err)
			}
			anchored, err := compile(`^(?:` + p + `)`)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", ts.Name, err)
			}
			typ.Patterns = append(typ.Patterns, re)
			typ.Anchored = append(typ.Anchored, anchored)
		}
		t.Types = append(t.Types, typ)
	}

	for _, ps := range f.Populations {
		pop := Population{Label: ps.Label}
		for _, p := range ps.Patterns {
			re, err := compile(wordBounded(p))
			if err != nil {
				return nil, fmt.Errorf("population %s: %w", ps.Label, err)
			}
			pop.Patterns = append(pop.Patterns, re)
		}
		t.Populations = append(t.Populations, pop)
	}

	for _, p := range f.Treatments {
		re, err := compile(p)
		if err != nil {
			return nil, fmt.Errorf("treatment: %w", err)
		}
		t.Treatments = append(t.Treatments, re)
	}

	for _, w := range f.TitleIndicators {
		re, err := compile(wordBounded(regexp.QuoteMeta(strings.ToLower(w))))
		if err != nil {
			return nil, fmt.Errorf("title indicator: %w", err)
		}
		t.TitleIndicators = append(t.TitleIndicators, re)
	}

	for _, ds := range f.Domains {
		if _, dup := t.domainIndex[ds.Name]; dup {
			return nil, fmt.Errorf("duplicate domain %q", ds.Name)
		}
		d := Domain{Name: ds.Name}
		for _, p := range ds.Keywords {
			kw, err := newKeyword(p, false)
			if err != nil {
				return nil, fmt.Errorf("domain %s: %w", ds.Name, err)
			}
			d.Keywords = append(d.Keywords, kw)
		}
		for _, p := range ds.Abbreviations {
			kw, err := newKeyword(p, true)
			if err != nil {
				return nil, fmt.Errorf("domain %s: %w", ds.Name, err)
			}
			d.Keywords = append(d.Keywords, kw)
		}
		if ds.Validation != nil {
			v := &Validation{
				MinHits: ds.Validation.MinHits,
				Penalty: ds.Validation.Penalty,
				Boost:   ds.Validation.Boost,
			}
			if v.Penalty <= 0 || v.Penalty > 1 {
				return nil, fmt.Errorf("domain %s: penalty must be in (0,1]", ds.Name)
			}
			for _, p := range ds.Validation.Indicators {
				re, err := compile(wordBounded(p))
				if err != nil {
					return nil, fmt.Errorf("domain %s indicator: %w", ds.Name, err)
				}
				v.Indicators = append(v.Indicators, re)
			}
			d.Validation = v
		}
		t.domainIndex[d.Name] = len(t.Domains)
		t.Domains = append(t.Domains, d)
	}

	return t, nil
}

// HasDomain reports whether name is a domain of this taxonomy.
func (t *Taxonomy) HasDomain(name string) bool {
	_, ok := t.domainIndex[name]
	return ok
}

// DomainOrder returns the declaration position of a domain, or -1.
func (t *Taxonomy) DomainOrder(name string) int {
	if i, ok := t.domainIndex[name]; ok {
		return i
	}
	return -1
}

// HasType reports whether name is a known output type.
func (t *Taxonomy) HasType(name string) bool {
	for _, typ := range t.Types {
		if typ.Name == name {
			return true
		}
	}
	return false
}

// CanonicalPopulation maps free population text to a canonical label. The
// first category with a matching pattern wins; unmatched text is returned
// title-cased.
func (t *Taxonomy) CanonicalPopulation(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, pop := range t.Populations {
		for _, re := range pop.Patterns {
			if re.MatchString(lower) {
				return pop.Label
			}
		}
	}
	return titleCase(lower)
}

func newKeyword(pattern string, abbreviation bool) (Keyword, error) {
	strict, err := compile(wordBounded(pattern))
	if err != nil {
		return Keyword{}, err
	}
	loose := strict
	if !abbreviation {
		loose, err = compile(pattern)
		if err != nil {
			return Keyword{}, err
		}
	}
	return Keyword{Pattern: pattern, strict: strict, loose: loose}, nil
}

func compile(p string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`(?i)` + p)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", p, err)
	}
	return re, nil
}

func wordBounded(p string) string {
	return `\b(?:` + p + `)\b`
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
