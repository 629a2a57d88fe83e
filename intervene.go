package vigil

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
)

// InterventionKind names the corrective action the engine selected.
type InterventionKind string

const (
	InterventionNone        InterventionKind = "none"
	InterventionBreakLoop   InterventionKind = "break_loop"
	InterventionRefocus     InterventionKind = "refocus"
	InterventionConsolidate InterventionKind = "consolidate"
)

// Intervention probability weights. The weighted sum feeds the threshold
// check; any single active alert also fires regardless of the sum, since a
// detector that tripped has already cleared its own evidence bar.
const (
	DefaultInterventionThreshold = 0.5

	weightCircular   = 0.4
	weightDistractor = 0.3
	weightQuality    = 0.2
	weightConfidence = 0.1
)

// Intervention is the engine's output: what to do, how urgent it is, and a
// prompt-ready message for the reasoning model.
type Intervention struct {
	Kind     InterventionKind
	Severity float64
	Message  string
	AtIndex  int
}

// InterventionEngine turns detector signals into corrective guidance.
// Alert priority is fixed: circular reasoning outranks distractor fixation
// outranks quality degradation, because a model stuck in a loop cannot act
// on refocusing advice until the loop is broken.
type InterventionEngine struct {
	store *SessionStore

	Threshold float64
}

// NewInterventionEngine creates an engine over the given store with the
// default firing threshold.
func NewInterventionEngine(store *SessionStore) *InterventionEngine {
	return &InterventionEngine{
		store:     store,
		Threshold: DefaultInterventionThreshold,
	}
}

// Decide evaluates one turn's signals and returns the intervention to
// issue, if any. Issued interventions are recorded on the session and
// published as events.
func (e *InterventionEngine) Decide(ctx context.Context, signals MonitoringSignals) (Intervention, bool) {
	p := e.probability(signals)
	if !signals.AnyAlert() && p < e.Threshold {
		return Intervention{Kind: InterventionNone, AtIndex: signals.Index}, false
	}

	iv := Intervention{
		Severity: clamp01(p),
		AtIndex:  signals.Index,
	}

	query := ""
	if snap, ok := e.store.Get(signals.SessionID); ok {
		query = snap.OriginalQuery
	}

	switch {
	case signals.Circular.Alert:
		iv.Kind = InterventionBreakLoop
		iv.Message = fmt.Sprintf(
			"The last %d steps restate the same reasoning without adding new information. "+
				"Stop rephrasing the current approach. Either draw a conclusion from it or try a different angle on: %s",
			signals.Circular.Consecutive+1, query,
		)
	case signals.Distractor.Alert:
		iv.Kind = InterventionRefocus
		iv.Message = fmt.Sprintf(
			"Recent steps have drifted away from the original question. "+
				"Set the current tangent aside and return to: %s",
			query,
		)
	default:
		iv.Kind = InterventionConsolidate
		iv.Message = fmt.Sprintf(
			"Reasoning quality has dropped below this session's baseline. "+
				"Pause, summarize what is established so far about %q, then continue from that summary in shorter, more direct steps.",
			query,
		)
	}

	e.store.recordIntervention(signals.SessionID, InterventionRecord{
		AtIndex:  iv.AtIndex,
		Kind:     iv.Kind,
		Severity: iv.Severity,
		Message:  iv.Message,
	})
	capitan.Emit(ctx, InterventionIssued,
		FieldSessionID.Field(signals.SessionID),
		FieldTurnIndex.Field(iv.AtIndex),
		FieldKind.Field(string(iv.Kind)),
		FieldSeverity.Field(float32(iv.Severity)),
	)
	return iv, true
}

// probability is the weighted evidence sum over the three alert states plus
// the confidence shortfall of the current rolling quality.
func (e *InterventionEngine) probability(signals MonitoringSignals) float64 {
	p := weightConfidence * (1 - signals.Quality.Current.Confidence)
	if signals.Circular.Alert {
		p += weightCircular
	}
	if signals.Distractor.Alert {
		p += weightDistractor
	}
	if signals.Quality.Alert {
		p += weightQuality
	}
	return p
}
