package matrix

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds how many detectors a single "a-b" token may expand to.
const MaxRangeSpan = 10000

var (
	reDashes    = regexp.MustCompile(`\s*[-–—]\s*`)
	rangeSplits = func(r rune) bool {
		switch r {
		case ',', ';', '/', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	}
)

func rangeTokens(expr string) []string {
	expr = reDashes.ReplaceAllString(strings.TrimSpace(expr), "-")
	return strings.FieldsFunc(expr, rangeSplits)
}

// parseToken returns the inclusive bounds of a token; ok is false for
// anything that is not "n" or "a-b" with a <= b and a bounded span.
func parseToken(tok string) (lo, hi int, ok bool) {
	a, b, isRange := strings.Cut(tok, "-")
	if !isDigits(a) {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	if !isRange {
		return lo, lo, true
	}
	if !isDigits(b) {
		return 0, 0, false
	}
	hi, err = strconv.Atoi(b)
	if err != nil || hi < lo || hi-lo > MaxRangeSpan {
		return 0, 0, false
	}
	return lo, hi, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ExpandRange expands a detector range expression such as "20001-20005,20009"
// into explicit numbers. Malformed tokens are skipped. Order is preserved and
// duplicates removed.
func ExpandRange(expr string) []int {
	var out []int
	seen := make(map[int]struct{})
	for _, tok := range rangeTokens(expr) {
		lo, hi, ok := parseToken(tok)
		if !ok {
			continue
		}
		for n := lo; n <= hi; n++ {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// CanonicalRange rewrites expr keeping only valid tokens, comma separated.
// Two expressions describing the same tokens compare equal.
func CanonicalRange(expr string) string {
	var kept []string
	for _, tok := range rangeTokens(expr) {
		lo, hi, ok := parseToken(tok)
		if !ok {
			continue
		}
		if lo == hi {
			kept = append(kept, strconv.Itoa(lo))
		} else {
			kept = append(kept, strconv.Itoa(lo)+"-"+strconv.Itoa(hi))
		}
	}
	return strings.Join(kept, ",")
}
