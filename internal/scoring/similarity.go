package scoring

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var wordPattern = regexp.MustCompile(`[A-Za-zА-Яа-яЁё0-9_]+`)

// Tokenize lower-cases text and splits it into word tokens
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// CosineSimilarity compares two texts as term-frequency vectors over their joint vocabulary.
// The result is 0 when either text has no tokens.
func CosineSimilarity(a, b string) float64 {
	freqA := termFrequencies(Tokenize(a))
	freqB := termFrequencies(Tokenize(b))
	if len(freqA) == 0 || len(freqB) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for term, ca := range freqA {
		normA += ca * ca
		if cb, ok := freqB[term]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range freqB {
		normB += cb * cb
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	// sqrt of the product keeps identical vectors at exactly 1
	sim := dot / math.Sqrt(normA*normB)
	return clamp(sim, 0, 1)
}

func termFrequencies(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

// StripWhitespace removes every Unicode whitespace rune
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
