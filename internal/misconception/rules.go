package misconception

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Input holds the context a rule inspects: the shape of a wrong answer,
// not the learner's history.
type Input struct {
	Subject       string // lesson subject, e.g. "Matematică", "Română"
	Prompt        string // question text
	Expected      string // first expected answer (alternates already resolved)
	LearnerAnswer string
}

// Rule is a single misconception heuristic. Apply returns a diagnostic
// hint and true when the rule recognizes the error shape.
type Rule interface {
	Name() string
	Apply(in *Input) (string, bool)
}

// DefaultRules returns the heuristics in priority order. The empty-answer
// check runs first so a blank submission never triggers a shape rule;
// after that, more specific shapes come before spelling-level ones.
func DefaultRules() []Rule {
	return []Rule{
		&EmptyAnswerRule{},
		&OffByOneRule{},
		&PlaceValueRule{},
		&TranspositionRule{},
		&DiacriticRule{},
		&CapitalizationRule{},
	}
}

// Diagnose runs the rules in order and returns the first matching hint.
// ok is false when no rule recognizes the error; callers fall back to the
// exercise's canned explanation.
func Diagnose(rules []Rule, in Input) (string, bool) {
	in.Subject = strings.ToLower(in.Subject)
	in.Prompt = strings.ToLower(strings.TrimSpace(in.Prompt))
	in.Expected = strings.TrimSpace(in.Expected)
	in.LearnerAnswer = strings.TrimSpace(in.LearnerAnswer)

	for _, r := range rules {
		if hint, ok := r.Apply(&in); ok {
			return hint, true
		}
	}
	return "", false
}

// EmptyAnswerRule asks for any attempt at all.
type EmptyAnswerRule struct{}

func (r *EmptyAnswerRule) Name() string { return "empty-answer" }

func (r *EmptyAnswerRule) Apply(in *Input) (string, bool) {
	if in.LearnerAnswer == "" {
		return "Nu am primit un răspuns. Încearcă să scrii sau să spui un număr sau un cuvânt.", true
	}
	return "", false
}

// OffByOneRule catches miscounts that land one away from the target.
type OffByOneRule struct{}

func (r *OffByOneRule) Name() string { return "off-by-one" }

func (r *OffByOneRule) Apply(in *Input) (string, bool) {
	u, err1 := strconv.ParseInt(in.LearnerAnswer, 10, 64)
	c, err2 := strconv.ParseInt(in.Expected, 10, 64)
	if err1 != nil || err2 != nil {
		return "", false
	}
	d := u - c
	if d == 1 || d == -1 {
		return "E foarte aproape! Verifică încă o dată ultima numărare — poate ai sărit un pas.", true
	}
	return "", false
}

// PlaceValueRule suggests column-by-column work when the question is
// about carrying or borrowing in a math lesson.
type PlaceValueRule struct{}

func (r *PlaceValueRule) Name() string { return "place-value" }

var placeValueWords = []string{"zec", "unit", "două cifre", "transport", "împrumut", "carry", "borrow"}

func (r *PlaceValueRule) Apply(in *Input) (string, bool) {
	if !strings.Contains(in.Subject, "mat") {
		return "", false
	}
	for _, w := range placeValueWords {
		if strings.Contains(in.Prompt, w) {
			return "Încearcă pe coloane: întâi unitățile, apoi zecile. Dacă treci de 9, transporți 1 la zeci.", true
		}
	}
	return "", false
}

// TranspositionRule spots a two-digit answer that is the exact digit
// reversal of the expected one (37 for 73).
type TranspositionRule struct{}

func (r *TranspositionRule) Name() string { return "digit-transposition" }

func (r *TranspositionRule) Apply(in *Input) (string, bool) {
	u, c := in.LearnerAnswer, in.Expected
	if len(u) != 2 || len(c) != 2 || !allDigits(u) || !allDigits(c) {
		return "", false
	}
	if u[0] == c[1] && u[1] == c[0] && u != c {
		return "Ai inversat cifrele. Prima cifră e zecile, a doua e unitățile.", true
	}
	return "", false
}

// DiacriticRule acknowledges substance when only accent marks differ.
type DiacriticRule struct{}

func (r *DiacriticRule) Name() string { return "diacritics-only" }

func (r *DiacriticRule) Apply(in *Input) (string, bool) {
	if in.LearnerAnswer == in.Expected {
		return "", false
	}
	if stripDiacritics(in.LearnerAnswer) == stripDiacritics(in.Expected) {
		return "E foarte bine, doar diacriticele diferă. Încearcă să scrii cu ă, â și î unde trebuie.", true
	}
	return "", false
}

// CapitalizationRule flags a lowercase start where the expected answer
// begins a sentence.
type CapitalizationRule struct{}

func (r *CapitalizationRule) Name() string { return "capitalization" }

func (r *CapitalizationRule) Apply(in *Input) (string, bool) {
	ur := []rune(in.LearnerAnswer)
	cr := []rune(in.Expected)
	if len(ur) == 0 || len(cr) == 0 {
		return "", false
	}
	if unicode.IsUpper(cr[0]) && unicode.IsLower(ur[0]) {
		return "Propoziția începe cu literă mare. Încearcă să pui prima literă mare.", true
	}
	return "", false
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripDiacritics removes combining marks but keeps letter case, so a
// capitalization slip is never mistaken for a diacritics-only one.
func stripDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
