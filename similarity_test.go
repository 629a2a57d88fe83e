package vigil

import (
	"testing"
)

func TestSimilarityIdenticalText(t *testing.T) {
	scorer := NewOverlapScorer()

	sim := scorer.Similarity("The cache invalidation strategy is flawed", "The cache invalidation strategy is flawed")
	if sim != 1 {
		t.Errorf("expected similarity 1 for identical text, got %f", sim)
	}
}

func TestSimilarityIgnoresCaseAndWhitespace(t *testing.T) {
	scorer := NewOverlapScorer()

	sim := scorer.Similarity("  The Cache Invalidation Strategy Is Flawed  ", "the cache invalidation strategy is flawed")
	if sim != 1 {
		t.Errorf("expected similarity 1 after normalization, got %f", sim)
	}
}

func TestSimilarityDisjointText(t *testing.T) {
	scorer := NewOverlapScorer()

	sim := scorer.Similarity(
		"Design a cache eviction policy",
		"Penguins huddle against antarctic winds",
	)
	if sim != 0 {
		t.Errorf("expected similarity 0 for disjoint text, got %f", sim)
	}
}

func TestSimilarityEmptyText(t *testing.T) {
	scorer := NewOverlapScorer()

	if sim := scorer.Similarity("", "anything"); sim != 0 {
		t.Errorf("expected 0 for empty first arg, got %f", sim)
	}
	if sim := scorer.Similarity("anything", "   "); sim != 0 {
		t.Errorf("expected 0 for blank second arg, got %f", sim)
	}
}

func TestSimilarityPartialOverlap(t *testing.T) {
	scorer := NewOverlapScorer()

	sim := scorer.Similarity(
		"The cache eviction policy uses least recently used ordering",
		"The cache eviction policy uses random sampling instead",
	)
	if sim <= 0 || sim >= 1 {
		t.Errorf("expected partial overlap in (0,1), got %f", sim)
	}
}

func TestSimilarityStemmingCollides(t *testing.T) {
	scorer := NewOverlapScorer()

	// Inflected forms of the same words should still overlap.
	sim := scorer.Similarity(
		"caching layers evicting entries",
		"cached layer evicted entry",
	)
	if sim <= 0.5 {
		t.Errorf("expected stemmed forms to overlap strongly, got %f", sim)
	}
}

func TestRelevanceMatchesSimilarity(t *testing.T) {
	scorer := NewOverlapScorer()

	a := "Redis uses jemalloc internally for allocation"
	b := "Design a cache eviction policy for the service"
	if got, want := scorer.Relevance(a, b), scorer.Similarity(a, b); got != want {
		t.Errorf("relevance %f != similarity %f", got, want)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"caching", "cach"},
		{"evicted", "evict"},
		{"caches", "cache"},
		{"layers", "layer"},
		{"process", "process"}, // double-s untouched
		{"ring", "ring"},       // too short for -ing rule
		{"bus", "bus"},         // too short for -s rule
	}
	for _, tt := range tests {
		if got := stem(tt.word); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestTokenizeDropsStopWordsAndShortTokens(t *testing.T) {
	tokens := tokenize("The cat and the dog ran to a big house")

	for _, tok := range tokens {
		if tok == "the" || tok == "and" {
			t.Errorf("stop word %q survived tokenization", tok)
		}
		if len(tok) <= 2 {
			t.Errorf("short token %q survived tokenization", tok)
		}
	}
}
