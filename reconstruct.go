package vigil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
)

// Context reconstruction defaults.
const (
	DefaultTokenBudget  = 4000
	DefaultRecentWindow = 5 * time.Minute

	// summaryLimit is the character cap applied when a turn is carried as a
	// summary line instead of verbatim.
	summaryLimit = 120

	omittedNotice = "[earlier steps omitted]"
)

// TokenCounter estimates the token cost of a string. The default counts
// whitespace-separated words, which overestimates slightly against real
// tokenizers and therefore never busts the budget.
type TokenCounter func(string) int

// CountWhitespaceTokens is the default TokenCounter.
func CountWhitespaceTokens(s string) int {
	return len(strings.Fields(s))
}

// Reconstructor assembles a token-bounded context string from a session's
// history for the next model call.
//
// Selection runs newest-first in three passes: turns inside the recent
// window go in verbatim, then older turns whose confidence reaches the
// session median, then whatever still fits as truncated summary lines. The
// output itself is always chronological.
type Reconstructor struct {
	store        *SessionStore
	counter      TokenCounter
	recentWindow time.Duration
	now          func() time.Time
}

// ReconstructorOption configures a Reconstructor.
type ReconstructorOption func(*Reconstructor)

// WithTokenCounter overrides the token estimator.
func WithTokenCounter(counter TokenCounter) ReconstructorOption {
	return func(r *Reconstructor) { r.counter = counter }
}

// WithRecentWindow overrides the verbatim-inclusion window.
func WithRecentWindow(d time.Duration) ReconstructorOption {
	return func(r *Reconstructor) { r.recentWindow = d }
}

// WithReconstructorClock overrides the clock used for recency checks.
func WithReconstructorClock(now func() time.Time) ReconstructorOption {
	return func(r *Reconstructor) { r.now = now }
}

// NewReconstructor creates a reconstructor over the given store.
func NewReconstructor(store *SessionStore, opts ...ReconstructorOption) *Reconstructor {
	r := &Reconstructor{
		store:        store,
		counter:      CountWhitespaceTokens,
		recentWindow: DefaultRecentWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct builds a context string for the session within the token
// budget. A budget of zero or less uses DefaultTokenBudget.
//
// The result is never empty for a non-empty session: when not even one
// turn fits, the newest turn is hard-truncated to the budget and
// ErrBudgetExhausted is returned alongside it.
func (r *Reconstructor) Reconstruct(ctx context.Context, sessionID string, budget int) (string, error) {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}

	snap, ok := r.store.Get(sessionID)
	if !ok {
		return "", fmt.Errorf("reconstruct session %q: %w", sessionID, ErrSessionNotFound)
	}
	if len(snap.History) == 0 {
		return "", nil
	}

	lines, omitted := r.selectLines(snap.History, budget)
	if len(lines) == 0 {
		truncated := r.truncateToBudget(turnLine(snap.History[len(snap.History)-1]), budget)
		return truncated, fmt.Errorf("budget %d tokens: %w", budget, ErrBudgetExhausted)
	}

	var b strings.Builder
	remaining := budget - totalTokens(r.counter, lines)

	header := fmt.Sprintf("Original query: %s", snap.OriginalQuery)
	if r.counter(header) <= remaining {
		b.WriteString(header)
		b.WriteString("\n\n")
		remaining -= r.counter(header)
	}
	if omitted && r.counter(omittedNotice) <= remaining {
		b.WriteString(omittedNotice)
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(lines, "\n"))

	out := b.String()
	capitan.Emit(ctx, ContextReconstructed,
		FieldSessionID.Field(sessionID),
		FieldTurnIndex.Field(len(snap.History)),
		FieldTokenCount.Field(r.counter(out)),
	)
	return out, nil
}

// selectLines picks turns newest-first under the budget and returns their
// rendered lines in chronological order, plus whether any turn was left out
// entirely.
func (r *Reconstructor) selectLines(history []Turn, budget int) ([]string, bool) {
	now := r.now()
	median := medianConfidence(history)

	// chosen[i] holds the rendered line for history[i], empty if dropped.
	chosen := make([]string, len(history))
	spent := 0

	take := func(i int, line string) bool {
		cost := r.counter(line)
		if spent+cost > budget {
			return false
		}
		chosen[i] = line
		spent += cost
		return true
	}

	// Pass 1: recent turns, verbatim.
	for i := len(history) - 1; i >= 0; i-- {
		if now.Sub(history[i].CreatedAt) > r.recentWindow {
			continue
		}
		take(i, turnLine(history[i]))
	}

	// Pass 2: older high-confidence turns, verbatim.
	for i := len(history) - 1; i >= 0; i-- {
		if chosen[i] != "" || confidence(history[i]) < median {
			continue
		}
		take(i, turnLine(history[i]))
	}

	// Pass 3: whatever remains, as summary lines.
	for i := len(history) - 1; i >= 0; i-- {
		if chosen[i] != "" {
			continue
		}
		take(i, summaryLine(history[i]))
	}

	lines := make([]string, 0, len(history))
	omitted := false
	for _, line := range chosen {
		if line == "" {
			omitted = true
			continue
		}
		lines = append(lines, line)
	}
	return lines, omitted
}

// truncateToBudget cuts a line down to at most budget tokens.
func (r *Reconstructor) truncateToBudget(line string, budget int) string {
	words := strings.Fields(line)
	if len(words) <= budget {
		return line
	}
	return strings.Join(words[:budget], " ")
}

func turnLine(t Turn) string {
	return fmt.Sprintf("[%d] %s: %s", t.Index, t.Role, t.Content)
}

func summaryLine(t Turn) string {
	content := strings.Join(strings.Fields(t.Content), " ")
	if len(content) > summaryLimit {
		content = content[:summaryLimit] + "..."
	}
	return fmt.Sprintf("[%d] %s (summary): %s", t.Index, t.Role, content)
}

func confidence(t Turn) float64 {
	if t.Quality == nil {
		return 0
	}
	return t.Quality.Confidence
}

// medianConfidence over all turns; unscored turns count as zero so they
// sort below every scored one.
func medianConfidence(history []Turn) float64 {
	values := make([]float64, len(history))
	for i, t := range history {
		values[i] = confidence(t)
	}
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

func totalTokens(counter TokenCounter, lines []string) int {
	total := 0
	for _, line := range lines {
		total += counter(line)
	}
	return total
}
