package vigil

import (
	"math"
	"strings"
	"unicode"
)

// Scorer turns two strings into a bounded similarity score.
// The default implementation is term-frequency cosine over normalized
// tokens; swap in an embedding-backed scorer without touching the
// detectors that consume it.
type Scorer interface {
	// Similarity returns a score in [0,1]; identical non-empty texts score 1.
	Similarity(a, b string) float64

	// Relevance scores a candidate against a fixed reference text,
	// typically a session's original query.
	Relevance(candidate, reference string) float64
}

// OverlapScorer is the baseline lexical Scorer: lowercase tokenization,
// stop-word removal, light suffix stemming, then cosine similarity over
// term-frequency vectors. It is a known-weak placeholder for an
// embedding distance, which is why it hides behind Scorer.
type OverlapScorer struct{}

// NewOverlapScorer creates the default lexical similarity scorer.
func NewOverlapScorer() *OverlapScorer {
	return &OverlapScorer{}
}

// Similarity implements Scorer.
func (s *OverlapScorer) Similarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}

	ta := termFrequencies(tokenize(a))
	tb := termFrequencies(tokenize(b))
	return cosine(ta, tb)
}

// Relevance implements Scorer. It reuses Similarity with the reference as
// the fixed point.
func (s *OverlapScorer) Relevance(candidate, reference string) float64 {
	return s.Similarity(candidate, reference)
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "but", "for", "with", "from", "about", "into",
		"through", "during", "before", "after", "above", "below", "between",
		"under", "was", "were", "been", "have", "has", "had", "does", "did",
		"will", "would", "should", "could", "may", "might", "must", "can",
		"this", "that", "these", "those", "are", "not", "you", "your",
	} {
		stopWords[w] = struct{}{}
	}
}

// tokenize lowercases, splits on non-alphanumeric runes, drops short tokens
// and stop words, and applies light suffix stemming.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

// stem strips the most common English suffixes. Not a real stemmer, just
// enough to make "learns"/"learning"/"learned" collide.
func stem(word string) string {
	switch {
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		return word[:len(word)-3]
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		return word[:len(word)-2]
	case strings.HasSuffix(word, "es") && len(word) > 4:
		return word[:len(word)-1]
	case strings.HasSuffix(word, "s") && len(word) > 3 && !strings.HasSuffix(word, "ss"):
		return word[:len(word)-1]
	}
	return word
}

func termFrequencies(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t] += 1.0 / float64(len(tokens))
	}
	return tf
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for term, va := range a {
		magA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		magB += vb * vb
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	return math.Min(sim, 1)
}
