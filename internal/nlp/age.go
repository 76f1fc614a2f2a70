package nlp

import (
	"regexp"
	"strconv"
)

// agePattern pairs a compiled expression with a builder that turns its
// capture groups into an AgeFilter. Patterns are tried in table order and
// the first match wins, so the table below is the single place the
// extraction priority lives.
type agePattern struct {
	re    *regexp.Regexp
	build func(groups []string) *AgeFilter
}

// agePatterns is the ordered pattern table. Range phrasings are checked
// before the single-bound phrasings so that a compound like
// "between 30 and 50" is never misread as an isolated bound when both
// kinds of pattern could fire on the same substring.
var agePatterns = []agePattern{
	{
		re:    regexp.MustCompile(`between\s+(\d+)\s+and\s+(\d+)`),
		build: func(g []string) *AgeFilter { return rangeFromCaptures(g[1], g[2]) },
	},
	{
		re:    regexp.MustCompile(`\b(\d+)\s+to\s+(\d+)\b`),
		build: func(g []string) *AgeFilter { return rangeFromCaptures(g[1], g[2]) },
	},
	{
		re:    regexp.MustCompile(`(?:over|above|older\s+than)\s+(\d+)\b`),
		build: func(g []string) *AgeFilter { return boundFromCapture(g[1], GreaterThan) },
	},
	{
		re:    regexp.MustCompile(`(?:under|below|younger\s+than)\s+(\d+)\b`),
		build: func(g []string) *AgeFilter { return boundFromCapture(g[1], LessThan) },
	},
	{
		re:    regexp.MustCompile(`\bage\s+(\d+)\b`),
		build: func(g []string) *AgeFilter { return boundFromCapture(g[1], Equals) },
	},
}

// ExtractAgeFilter scans lower-cased text against the ordered pattern table
// and returns the first matching constraint, or nil when no pattern matches.
// At most one filter is ever returned; later matches are not merged.
func ExtractAgeFilter(lower string) *AgeFilter {
	for _, p := range agePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if f := p.build(m); f != nil {
			return f
		}
	}
	return nil
}

func boundFromCapture(s string, build func(int) *AgeFilter) *AgeFilter {
	n, err := strconv.Atoi(s)
	if err != nil {
		// Captures are digit-only, so this only fires on values that
		// overflow int. Treat the pattern as not matched.
		return nil
	}
	return build(n)
}

func rangeFromCaptures(lo, hi string) *AgeFilter {
	a, err := strconv.Atoi(lo)
	if err != nil {
		return nil
	}
	b, err := strconv.Atoi(hi)
	if err != nil {
		return nil
	}
	return Range(a, b)
}
