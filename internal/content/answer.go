package content

import (
	"regexp"
	"strconv"
	"strings"
)

// thousandsRun matches a digit run written with Romanian thousands
// separators: 1-3 leading digits followed by one or more dot- or
// space-separated groups of exactly three. "203.000", "290 000" and
// "1.234.567" all match; "3.14" does not.
var thousandsRun = regexp.MustCompile(`\d{1,3}(?:[. ]\d{3})+`)

// altSplit splits an expected answer into its "sau"-separated alternates.
var altSplit = regexp.MustCompile(`(?i)\s+sau\s+`)

// Normalize prepares an answer string for comparison: trims, lowercases
// and collapses thousands separators so "203.000", "203 000" and "203000"
// compare equal. Real decimals are left alone (a separator group must be
// exactly three digits and not glued to further digits).
func Normalize(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	return collapseThousands(t)
}

func collapseThousands(s string) string {
	locs := thousandsRun.FindAllStringIndex(s, -1)
	if locs == nil {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		// A trailing fourth digit means this was never separator notation
		// ("203.0001" stays as typed).
		if end < len(s) && s[end] >= '0' && s[end] <= '9' {
			continue
		}
		b.WriteString(s[last:start])
		for i := start; i < end; i++ {
			if c := s[i]; c != '.' && c != ' ' {
				b.WriteByte(c)
			}
		}
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

// Alternates returns the normalized acceptable forms of an expected
// answer. "32 sau 60" yields ["32", "60"]; an answer without alternates
// yields a single element.
func Alternates(expected string) []string {
	parts := altSplit.Split(expected, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CheckAnswer compares the learner's input against an exercise's expected
// answer. Comparison is case-insensitive, thousands-separator-insensitive
// and accepts any "sau"-separated alternate. Multiple-choice exercises
// additionally accept the 1-based choice index.
func CheckAnswer(learnerAnswer string, ex *Exercise) bool {
	learner := strings.TrimSpace(learnerAnswer)
	if learner == "" {
		return false
	}

	if len(ex.Choices) > 0 {
		if checkChoiceIndex(learner, ex) {
			return true
		}
	}

	got := Normalize(learner)
	for _, want := range Alternates(ex.Answer) {
		if got == want {
			return true
		}
	}
	return false
}

func checkChoiceIndex(learner string, ex *Exercise) bool {
	idx, err := strconv.Atoi(learner)
	if err != nil || idx < 1 || idx > len(ex.Choices) {
		return false
	}
	return strings.EqualFold(
		strings.TrimSpace(ex.Choices[idx-1]),
		strings.TrimSpace(ex.Answer),
	)
}
