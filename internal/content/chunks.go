package content

import (
	"regexp"
	"strings"
	"unicode"
)

// chunkTarget is the character count at which a paragraph buffer is
// flushed into its own theory chunk.
const chunkTarget = 240

// minChunkLen drops fragments too short to be worth reading aloud.
const minChunkLen = 10

// SplitTheory breaks lesson theory into presentable chunks: paragraphs
// are merged until they pass chunkTarget characters, and fragments
// shorter than minChunkLen are dropped.
func SplitTheory(text string) []string {
	var chunks []string
	var buf []string

	flush := func() {
		if len(buf) == 0 {
			return
		}
		c := strings.TrimSpace(strings.Join(buf, " "))
		if len(c) > minChunkLen {
			chunks = append(chunks, c)
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		buf = append(buf, line)
		if len(strings.Join(buf, " ")) > chunkTarget {
			flush()
		}
	}
	flush()
	return chunks
}

// ChunkKind classifies a theory chunk for presentation.
type ChunkKind int

const (
	ChunkTheory ChunkKind = iota // explanatory text, read in full
	ChunkTask                    // work instructions, announced by first line
)

// taskOpeners are imperative openers that mark a chunk as a work task
// rather than explanatory theory.
var taskOpeners = regexp.MustCompile(`(?i)^(scrie|calculea|rezolv|complet|desenea|transcri|subliniaz|une[șs]te|alege|observ)`)

// ClassifyChunk reports whether a chunk is explanatory theory or a task
// the learner should work through in the scratchpad.
func ClassifyChunk(chunk string) ChunkKind {
	if taskOpeners.MatchString(strings.TrimSpace(chunk)) {
		return ChunkTask
	}
	return ChunkTheory
}

// FirstLine returns the chunk's opening line, clipped for announcement.
func FirstLine(chunk string, maxLen int) string {
	line := chunk
	if i := strings.IndexByte(chunk, '\n'); i >= 0 {
		line = chunk[:i]
	}
	line = strings.TrimSpace(line)
	if maxLen > 0 && len(line) > maxLen {
		line = line[:maxLen]
	}
	return strings.TrimSpace(line)
}

// placeholderMarks identify auto-seeded filler exercises that background
// generation is allowed to replace.
var placeholderMarks = []string{
	"Întrebare rapidă din lecția",
	"Intrebare rapida din lectia",
	"Exercițiu de practică",
	"Exercitiu de practica",
	"Test final",
}

// IsPlaceholder reports whether an exercise is auto-seeded filler rather
// than real authored or generated content.
func IsPlaceholder(ex *Exercise) bool {
	for _, m := range placeholderMarks {
		if strings.Contains(ex.Prompt, m) {
			return true
		}
	}
	return CorruptAnswer(ex.Answer)
}

// badAnswers are answer values known to come from broken textbook
// imports: multiple-choice letter codes and truncated fragments.
var badAnswers = map[string]bool{
	"w": true, "m": true, "t": true, "f": true,
	"a": true, "b": true, "c": true, "d": true,
	"A": true, "B": true, "C": true, "D": true,
	"T": true, "F": true,
	"Rep": true, "hist": true, "I b": true, "He f": true,
}

// CorruptAnswer reports whether an expected answer is unusable: empty,
// a known bad import code, junk punctuation, or a truncated phrase.
func CorruptAnswer(answer string) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return true
	}
	if badAnswers[answer] {
		return true
	}
	if len(answer) <= 2 && !lettersOrDigits(answer) {
		return true
	}
	if len(answer) < 4 && strings.Contains(answer, " ") {
		return true
	}
	return false
}

func lettersOrDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// AllPlaceholders reports whether every exercise in the list is filler.
// An empty list counts as all-placeholder so generation kicks in.
func AllPlaceholders(exs []Exercise) bool {
	for i := range exs {
		if !IsPlaceholder(&exs[i]) {
			return false
		}
	}
	return true
}
