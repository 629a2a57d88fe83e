package vigil

// Circular-reasoning detection defaults.
const (
	DefaultCircularWindow         = 5
	DefaultCircularThreshold      = 0.85
	DefaultCircularConsecutiveMin = 3
)

// CircularState is the rolling state the circular-reasoning detector keeps
// per session. It lives in the session record, not the detector, so one
// detector instance can serve every session.
type CircularState struct {
	// Consecutive counts assistant turns in a row whose max similarity
	// reached the threshold. Resets to zero on any turn below it.
	Consecutive int

	// LastScore is the max similarity observed on the most recent step.
	LastScore float64
}

// CircularSignal is the detector's output for one turn.
type CircularSignal struct {
	// Score is the maximum similarity between the current turn and any
	// prior assistant turn in the window. A single near-duplicate is
	// sufficient signal, so the max is taken rather than the average.
	Score       float64
	Alert       bool
	Consecutive int
}

// CircularReasoningDetector flags near-duplicate content recurring across
// nearby assistant turns. It slides a window over the last Window
// assistant turns, scores the newest against each prior turn in the
// window, and alerts once ConsecutiveMin turns in a row score at or above
// Threshold.
type CircularReasoningDetector struct {
	scorer Scorer

	Window         int
	Threshold      float64
	ConsecutiveMin int
}

// NewCircularReasoningDetector creates a detector with the default window
// and thresholds.
func NewCircularReasoningDetector(scorer Scorer) *CircularReasoningDetector {
	return &CircularReasoningDetector{
		scorer:         scorer,
		Window:         DefaultCircularWindow,
		Threshold:      DefaultCircularThreshold,
		ConsecutiveMin: DefaultCircularConsecutiveMin,
	}
}

// Evaluate scores the newest turn in history against the sliding window and
// returns the updated rolling state. Pure given its inputs: callers pass the
// prior state and persist the returned one.
//
// Non-assistant turns pass through without touching the counter.
func (d *CircularReasoningDetector) Evaluate(history []Turn, state CircularState) (CircularSignal, CircularState) {
	if len(history) == 0 {
		return CircularSignal{Consecutive: state.Consecutive}, state
	}

	current := history[len(history)-1]
	if current.Role != RoleAssistant {
		return CircularSignal{Score: state.LastScore, Consecutive: state.Consecutive}, state
	}

	window := assistantWindow(history, d.Window)

	// window[len-1] is the current turn; score against the prior ones.
	var maxSim float64
	for i := 0; i < len(window)-1; i++ {
		sim := d.scorer.Similarity(current.Content, window[i].Content)
		if sim > maxSim {
			maxSim = sim
		}
	}

	if maxSim >= d.Threshold {
		state.Consecutive++
	} else {
		state.Consecutive = 0
	}
	state.LastScore = maxSim

	return CircularSignal{
		Score:       maxSim,
		Alert:       state.Consecutive >= d.ConsecutiveMin,
		Consecutive: state.Consecutive,
	}, state
}

// assistantWindow returns the last n assistant turns, oldest first.
func assistantWindow(history []Turn, n int) []Turn {
	window := make([]Turn, 0, n)
	for i := len(history) - 1; i >= 0 && len(window) < n; i-- {
		if history[i].Role == RoleAssistant {
			window = append(window, history[i])
		}
	}
	// Reverse into chronological order.
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window
}
