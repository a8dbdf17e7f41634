package scoring

import (
	"regexp"
	"strings"
)

// Pair answer-key grammar, one pair per line:
//
//	line   = ws* term ws* dash+ ws* letter any*
//	term   = digit+
//	dash   = "-" | "–" | "—"
//	letter = A-Z | a-z | А-Я | а-я | Ё | ё
//
// Lines that do not match are dropped.
var pairLinePattern = regexp.MustCompile(`^\s*(\d+)\s*[-–—]+\s*([A-Za-zА-Яа-яЁё])`)

var (
	leadingDigits = regexp.MustCompile(`^\s*(\d+)`)
	leadingLetter = regexp.MustCompile(`^\s*([A-Za-zА-Яа-яЁё])`)
	lineBreak     = regexp.MustCompile(`\r?\n`)
)

// Pair is a normalized term number to definition letter association
type Pair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func (p Pair) String() string {
	return p.Term + " – " + p.Definition
}

// ParsePairLine parses a single "<number> <dash> <letter>" line
func ParsePairLine(line string) (Pair, bool) {
	m := pairLinePattern.FindStringSubmatch(line)
	if m == nil {
		return Pair{}, false
	}
	return Pair{Term: m[1], Definition: m[2]}, true
}

// ParsePairLines parses a newline-delimited pair list, silently skipping malformed lines
func ParsePairLines(text string) []Pair {
	pairs := make([]Pair, 0)
	for _, line := range lineBreak.Split(text, -1) {
		if p, ok := ParsePairLine(line); ok {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// NormalizePairAnswer reduces a widget pair to its term number and definition letter.
// When either side has no leading number/letter the trimmed text is kept.
func NormalizePairAnswer(p PairAnswer) Pair {
	term := strings.TrimSpace(p.Term)
	if m := leadingDigits.FindStringSubmatch(p.Term); m != nil {
		term = m[1]
	}
	def := strings.TrimSpace(p.Definition)
	if m := leadingLetter.FindStringSubmatch(p.Definition); m != nil {
		def = m[1]
	}
	return Pair{Term: term, Definition: def}
}

// FormatPairs renders pairs as "N – L" lines
func FormatPairs(pairs []Pair) string {
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}

// cyrillicHomoglyphs maps upper-case Cyrillic letters to the Latin letters they look like.
// Other Cyrillic letters pass through unchanged.
var cyrillicHomoglyphs = map[rune]rune{
	'А': 'A',
	'В': 'B',
	'Е': 'E',
	'К': 'K',
	'М': 'M',
	'Н': 'H',
	'О': 'O',
	'Р': 'P',
	'С': 'C',
	'Т': 'T',
	'У': 'Y',
	'Х': 'X',
}

// NormalizeLetter upper-cases s and replaces Cyrillic homoglyphs with their Latin twins
func NormalizeLetter(s string) string {
	return strings.Map(func(r rune) rune {
		if latin, ok := cyrillicHomoglyphs[r]; ok {
			return latin
		}
		return r
	}, strings.ToUpper(s))
}
