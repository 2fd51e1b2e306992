package detect

import (
	"regexp"
	"strings"
)

var (
	continuationPhrases = []string{"mean (sd)", "median", "min, max", "95% ci",
		"std dev", "analysis set", "n (%)", "continued", "footnote"}
	continuationRes = []*regexp.Regexp{
		regexp.MustCompile(`\d+\s*\(\s*\d+\.\d+%?\s*\)`),
		regexp.MustCompile(`\d+\.\d+\s*\(\s*\d+\.\d+\s*\)`),
		regexp.MustCompile(`\b\d+\.\d+\s*,\s*\d+\.\d+\b`),
		regexp.MustCompile(`\b\d+\.\d+\s+\d+\.\d+\s*\(`),
		regexp.MustCompile(`objective\s+disease\s+progression`),
		regexp.MustCompile(`lost\s+to\s+follow[\s\-]*up`),
		regexp.MustCompile(`study\s+enrollment\s+closed`),
	}
	parenPercentRe = regexp.MustCompile(`\(\s*\d+(?:\.\d+)?%?\s*\)`)
)

// ContinuationScore counts the signs that text continues an output begun
// in an earlier chunk: statistical phrases, numeric row shapes and dense
// numbers.
func ContinuationScore(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, p := range continuationPhrases {
		if strings.Contains(lower, p) {
			score++
		}
	}
	for _, re := range continuationRes {
		if re.MatchString(lower) {
			score++
		}
	}
	if len(numberTokenRe.FindAllStringIndex(lower, -1)) > 10 {
		score++
	}
	if len(parenPercentRe.FindAllStringIndex(lower, -1)) > 2 {
		score++
	}
	return score
}
