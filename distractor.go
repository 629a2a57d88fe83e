package vigil

// Distractor-fixation detection defaults.
const (
	DefaultRelevanceThreshold       = 0.30
	DefaultDistractorConsecutiveMin = 2
)

// DistractorState is the rolling state the distractor-fixation detector
// keeps per session.
type DistractorState struct {
	// Consecutive counts turns in a row scoring below the relevance
	// threshold. Resets on any turn at or above it.
	Consecutive int

	// LastRelevance is the relevance score of the most recent turn.
	LastRelevance float64
}

// DistractorSignal is the detector's output for one turn.
type DistractorSignal struct {
	Relevance   float64
	Alert       bool
	Consecutive int
}

// DistractorFixationDetector flags sustained drift away from the session's
// original query. Each turn is scored for relevance against the query; the
// detector alerts after ConsecutiveMin turns in a row below Threshold.
type DistractorFixationDetector struct {
	scorer Scorer

	Threshold      float64
	ConsecutiveMin int
}

// NewDistractorFixationDetector creates a detector with the default
// relevance threshold.
func NewDistractorFixationDetector(scorer Scorer) *DistractorFixationDetector {
	return &DistractorFixationDetector{
		scorer:         scorer,
		Threshold:      DefaultRelevanceThreshold,
		ConsecutiveMin: DefaultDistractorConsecutiveMin,
	}
}

// Evaluate scores one turn against the original query and returns the
// updated rolling state. The first turn of a session is the query itself
// and always counts as fully relevant.
func (d *DistractorFixationDetector) Evaluate(turn Turn, originalQuery string, state DistractorState) (DistractorSignal, DistractorState) {
	if turn.Index <= 1 || originalQuery == "" {
		state.Consecutive = 0
		state.LastRelevance = 1
		return DistractorSignal{Relevance: 1}, state
	}

	relevance := d.scorer.Relevance(turn.Content, originalQuery)
	if relevance < d.Threshold {
		state.Consecutive++
	} else {
		state.Consecutive = 0
	}
	state.LastRelevance = relevance

	return DistractorSignal{
		Relevance:   relevance,
		Alert:       state.Consecutive >= d.ConsecutiveMin,
		Consecutive: state.Consecutive,
	}, state
}
