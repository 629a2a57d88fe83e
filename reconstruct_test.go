package vigil

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestReconstructUnknownSession(t *testing.T) {
	r := NewReconstructor(NewSessionStore())

	_, err := r.Reconstruct(context.Background(), "missing", 100)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReconstructEmptySession(t *testing.T) {
	store := NewSessionStore()
	r := NewReconstructor(store)
	id := store.Create()

	out, err := r.Reconstruct(context.Background(), id, 100)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty context for empty session, got %q", out)
	}
}

func TestReconstructRecentTurnsVerbatim(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()

	store.Append(id, Turn{Role: RoleUser, Content: "explain the outage"})
	store.Append(id, Turn{Role: RoleAssistant, Content: "the load balancer dropped its health checks"})

	out, err := r.Reconstruct(context.Background(), id, DefaultTokenBudget)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	if !strings.Contains(out, "[1] user: explain the outage") {
		t.Errorf("missing verbatim turn 1:\n%s", out)
	}
	if !strings.Contains(out, "[2] assistant: the load balancer dropped its health checks") {
		t.Errorf("missing verbatim turn 2:\n%s", out)
	}
	if !strings.Contains(out, "Original query: explain the outage") {
		t.Errorf("missing header:\n%s", out)
	}
}

func TestReconstructChronologicalOrder(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()

	for _, content := range []string{"alpha step", "bravo step", "charlie step"} {
		store.Append(id, Turn{Role: RoleAssistant, Content: content})
	}

	out, err := r.Reconstruct(context.Background(), id, DefaultTokenBudget)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	alpha := strings.Index(out, "alpha")
	bravo := strings.Index(out, "bravo")
	charlie := strings.Index(out, "charlie")
	if alpha < 0 || bravo < 0 || charlie < 0 {
		t.Fatalf("missing turns:\n%s", out)
	}
	if !(alpha < bravo && bravo < charlie) {
		t.Errorf("output not chronological:\n%s", out)
	}
}

func TestReconstructOldLowConfidenceSummarized(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()

	old := clock.Now().Add(-time.Hour)
	longRamble := strings.Repeat("meandering exploratory aside about tangents ", 10)
	store.Append(id, Turn{Role: RoleAssistant, Content: longRamble,
		Quality: &Quality{Confidence: 0.1}, CreatedAt: old})
	store.Append(id, Turn{Role: RoleAssistant, Content: "the root cause is a stale DNS record",
		Quality: &Quality{Confidence: 0.9}, CreatedAt: old})
	store.Append(id, Turn{Role: RoleAssistant, Content: "patch the resolver config",
		Quality: &Quality{Confidence: 0.8}})

	out, err := r.Reconstruct(context.Background(), id, DefaultTokenBudget)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	// Old but high-confidence: verbatim. Old and low-confidence: summary.
	if !strings.Contains(out, "[2] assistant: the root cause is a stale DNS record") {
		t.Errorf("high-confidence turn not verbatim:\n%s", out)
	}
	if !strings.Contains(out, "[1] assistant (summary):") {
		t.Errorf("low-confidence turn not summarized:\n%s", out)
	}
	if strings.Contains(out, longRamble) {
		t.Error("summary should not carry the full ramble")
	}
}

func TestReconstructSummaryTruncatesContent(t *testing.T) {
	long := strings.Repeat("x", 500)
	line := summaryLine(Turn{Index: 3, Role: RoleAssistant, Content: long})

	if len(line) > summaryLimit+40 {
		t.Errorf("summary line too long: %d chars", len(line))
	}
	if !strings.HasSuffix(line, "...") {
		t.Errorf("expected ellipsis suffix, got %q", line)
	}
}

func TestReconstructBudgetExhausted(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()

	store.Append(id, Turn{Role: RoleAssistant, Content: "a fairly long reasoning step with many words in it"})

	out, err := r.Reconstruct(context.Background(), id, 3)
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if out == "" {
		t.Fatal("result must not be empty even when the budget is exhausted")
	}
	if got := len(strings.Fields(out)); got > 3 {
		t.Errorf("truncated result exceeds budget: %d tokens", got)
	}
}

func TestReconstructZeroBudgetUsesDefault(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()
	store.Append(id, Turn{Role: RoleAssistant, Content: "short step"})

	out, err := r.Reconstruct(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("reconstruct with default budget: %v", err)
	}
	if !strings.Contains(out, "short step") {
		t.Errorf("expected turn under default budget:\n%s", out)
	}
}

func TestReconstructOmittedNotice(t *testing.T) {
	clock := newFakeClock()
	store := NewSessionStore(WithClock(clock.Now))
	r := NewReconstructor(store, WithReconstructorClock(clock.Now))
	id := store.Create()

	old := clock.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		store.Append(id, Turn{Role: RoleAssistant, CreatedAt: old,
			Content: strings.Repeat("padding words for this older reasoning step ", 5)})
	}
	store.Append(id, Turn{Role: RoleAssistant, Content: "newest finding stands alone"})

	// Enough for the newest turn and a little more, not for six old ones.
	out, err := r.Reconstruct(context.Background(), id, 60)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	if !strings.Contains(out, "newest finding stands alone") {
		t.Errorf("newest turn missing:\n%s", out)
	}
	if !strings.Contains(out, omittedNotice) {
		t.Errorf("expected omission notice:\n%s", out)
	}
}

func TestCountWhitespaceTokens(t *testing.T) {
	if got := CountWhitespaceTokens("  three  word  line "); got != 3 {
		t.Errorf("expected 3 tokens, got %d", got)
	}
	if got := CountWhitespaceTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty string, got %d", got)
	}
}

func TestMedianConfidence(t *testing.T) {
	history := []Turn{
		{Quality: &Quality{Confidence: 0.2}},
		{Quality: &Quality{Confidence: 0.8}},
		{Quality: nil}, // counts as zero
	}
	if got := medianConfidence(history); got != 0.2 {
		t.Errorf("expected median 0.2, got %f", got)
	}

	even := history[:2]
	if got := medianConfidence(even); got != 0.5 {
		t.Errorf("expected median 0.5, got %f", got)
	}
}
