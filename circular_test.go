package vigil

import (
	"fmt"
	"testing"
)

func assistantTurns(contents ...string) []Turn {
	turns := make([]Turn, len(contents))
	for i, c := range contents {
		turns[i] = Turn{Index: i + 1, Role: RoleAssistant, Content: c}
	}
	return turns
}

func TestCircularNoHistory(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())

	signal, state := d.Evaluate(nil, CircularState{})
	if signal.Alert {
		t.Error("empty history must not alert")
	}
	if state.Consecutive != 0 {
		t.Errorf("expected consecutive 0, got %d", state.Consecutive)
	}
}

func TestCircularFirstTurnScoresZero(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())

	signal, _ := d.Evaluate(assistantTurns("the only turn so far"), CircularState{})
	if signal.Score != 0 {
		t.Errorf("first turn has no prior window, expected score 0, got %f", signal.Score)
	}
}

func TestCircularRepeatedContentAlerts(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())

	repeated := "The lock must be acquired before the queue is drained"
	var state CircularState
	var signal CircularSignal

	history := []Turn{}
	for i := 0; i < 4; i++ {
		history = append(history, Turn{Index: i + 1, Role: RoleAssistant, Content: repeated})
		signal, state = d.Evaluate(history, state)
	}

	// Turn 1 has no prior; turns 2-4 each score 1.0 against the window.
	if state.Consecutive != 3 {
		t.Errorf("expected 3 consecutive high-similarity turns, got %d", state.Consecutive)
	}
	if !signal.Alert {
		t.Error("expected alert after three consecutive near-duplicates")
	}
	if signal.Score != 1 {
		t.Errorf("expected score 1 for identical content, got %f", signal.Score)
	}
}

func TestCircularNovelContentResetsCounter(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())

	repeated := "The lock must be acquired before the queue is drained"
	history := assistantTurns(repeated, repeated, repeated)

	var state CircularState
	for i := 1; i <= len(history); i++ {
		_, state = d.Evaluate(history[:i], state)
	}
	if state.Consecutive != 2 {
		t.Fatalf("setup: expected consecutive 2, got %d", state.Consecutive)
	}

	history = append(history, Turn{
		Index:   4,
		Role:    RoleAssistant,
		Content: "Alternatively, swapping to a lock-free ring buffer removes contention entirely",
	})
	signal, state := d.Evaluate(history, state)

	if signal.Alert {
		t.Error("novel content must not alert")
	}
	if state.Consecutive != 0 {
		t.Errorf("expected counter reset, got %d", state.Consecutive)
	}
}

func TestCircularNonAssistantTurnsPassThrough(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())

	state := CircularState{Consecutive: 2, LastScore: 0.9}
	history := []Turn{
		{Index: 1, Role: RoleAssistant, Content: "some reasoning"},
		{Index: 2, Role: RoleUser, Content: "a user interjection"},
	}

	signal, newState := d.Evaluate(history, state)
	if newState != state {
		t.Errorf("user turn must not touch state: %+v != %+v", newState, state)
	}
	if signal.Consecutive != 2 {
		t.Errorf("expected signal to carry consecutive 2, got %d", signal.Consecutive)
	}
}

func TestCircularWindowExcludesOldTurns(t *testing.T) {
	d := NewCircularReasoningDetector(NewOverlapScorer())
	d.Window = 3

	// A near-duplicate of turn 1 lands at turn 5; the 3-wide window over
	// turns 3-5 no longer contains turn 1.
	history := assistantTurns(
		"zebras graze across the open savanna plains",
		"compilers allocate registers using graph coloring",
		"databases batch writes into group commits",
		"kernels schedule threads with priority queues",
		"zebras graze across the open savanna plains",
	)

	signal, _ := d.Evaluate(history, CircularState{})
	if signal.Score != 0 {
		t.Errorf("duplicate outside window should score 0, got %f", signal.Score)
	}
}

func TestAssistantWindowChronological(t *testing.T) {
	history := []Turn{
		{Index: 1, Role: RoleAssistant, Content: "a"},
		{Index: 2, Role: RoleUser, Content: "b"},
		{Index: 3, Role: RoleAssistant, Content: "c"},
		{Index: 4, Role: RoleAssistant, Content: "d"},
	}

	window := assistantWindow(history, 2)
	if len(window) != 2 {
		t.Fatalf("expected window of 2, got %d", len(window))
	}
	got := fmt.Sprintf("%s%s", window[0].Content, window[1].Content)
	if got != "cd" {
		t.Errorf("expected chronological window cd, got %q", got)
	}
}
