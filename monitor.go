package vigil

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Phase classifies where a session is in its reasoning arc, estimated from
// turn position against the caller's total-step estimate.
type Phase string

const (
	PhaseExploration Phase = "exploration"
	PhaseSynthesis   Phase = "synthesis"
	PhaseConclusion  Phase = "conclusion"
)

// Phase boundaries as fractions of the estimated total.
const (
	explorationBoundary = 0.4
	synthesisBoundary   = 0.8
)

// ThoughtRequest carries one reasoning step into the monitor.
type ThoughtRequest struct {
	// SessionID routes the thought to a session. Empty allocates a fresh
	// one; unknown ids are treated as new session starts.
	SessionID string

	Content string

	// Role defaults to assistant when empty.
	Role Role

	// Origin labels the producing tool or caller. Informational.
	Origin string

	// TotalEstimate is the caller's guess at total reasoning steps.
	// Zero means unknown; the phase then stays at exploration.
	TotalEstimate int

	// Quality attaches externally computed metrics. When nil on an
	// assistant turn the monitor scores the content itself.
	Quality *Quality

	// Revises and BranchFrom reference earlier turn indexes; BranchID
	// names the branch this turn extends.
	Revises    int
	BranchFrom int
	BranchID   string
}

// MonitoringSignals is the full detector readout for one processed thought.
type MonitoringSignals struct {
	SessionID string
	Index     int
	Phase     Phase

	Circular   CircularSignal
	Distractor DistractorSignal
	Quality    QualitySignal

	// CognitiveLoad blends repetition pressure and drift into one [0,1]
	// score: 0.6 weight on circular similarity, 0.4 on irrelevance.
	CognitiveLoad float64
}

// AnyAlert reports whether any detector is in its alert state.
func (s MonitoringSignals) AnyAlert() bool {
	return s.Circular.Alert || s.Distractor.Alert || s.Quality.Alert
}

// Monitor runs every reasoning turn through the detector pipeline and keeps
// the per-session rolling state current.
//
// # Processing model
//
// ProcessThought appends the turn under the store lock, then evaluates the
// detector pipeline against a snapshot without holding it. Detector state is
// committed back afterwards; a session evicted mid-evaluation simply drops
// the commit.
type Monitor struct {
	store         *SessionStore
	scorer        Scorer
	qualityScorer QualityScorer

	circular   *CircularReasoningDetector
	distractor *DistractorFixationDetector
	quality    *QualityDegradationDetector

	pipeline *pipz.Sequence[*Evaluation]
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithStore attaches a shared session store. Callers that also run an
// InterventionEngine or Reconstructor pass the same store to all three.
func WithStore(store *SessionStore) MonitorOption {
	return func(m *Monitor) { m.store = store }
}

// WithScorer overrides the similarity scorer used by the circular and
// distractor detectors.
func WithScorer(scorer Scorer) MonitorOption {
	return func(m *Monitor) { m.scorer = scorer }
}

// WithQualityScorer overrides the scorer used when a thought arrives
// without externally computed quality metrics.
func WithQualityScorer(scorer QualityScorer) MonitorOption {
	return func(m *Monitor) { m.qualityScorer = scorer }
}

// NewMonitor creates a monitor with default detectors.
//
// Example:
//
//	store := vigil.NewSessionStore()
//	monitor := vigil.NewMonitor(vigil.WithStore(store))
//	signals, err := monitor.ProcessThought(ctx, vigil.ThoughtRequest{
//	    Content:       "First, enumerate the constraints...",
//	    TotalEstimate: 10,
//	})
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = NewSessionStore()
	}
	if m.scorer == nil {
		m.scorer = NewOverlapScorer()
	}
	if m.qualityScorer == nil {
		m.qualityScorer = NewHeuristicQualityScorer()
	}

	m.circular = NewCircularReasoningDetector(m.scorer)
	m.distractor = NewDistractorFixationDetector(m.scorer)
	m.quality = NewQualityDegradationDetector()
	m.pipeline = m.buildPipeline()
	return m
}

// Store returns the session store backing this monitor.
func (m *Monitor) Store() *SessionStore {
	return m.store
}

// ProcessThought records one reasoning step and returns the full detector
// readout. The turn is appended before evaluation, so signals always
// describe the history including this turn.
func (m *Monitor) ProcessThought(ctx context.Context, req ThoughtRequest) (MonitoringSignals, error) {
	id := m.store.GetOrCreate(req.SessionID)

	role := req.Role
	if role == "" {
		role = RoleAssistant
	}

	quality := req.Quality
	if quality == nil && role == RoleAssistant {
		q := m.qualityScorer.Score(req.Content)
		quality = &q
	}

	turn := Turn{
		Role:       role,
		Content:    req.Content,
		Origin:     req.Origin,
		Quality:    quality,
		BranchID:   req.BranchID,
		BranchFrom: req.BranchFrom,
		Revises:    req.Revises,
	}
	index, err := m.store.Append(id, turn)
	if err != nil {
		return MonitoringSignals{}, err
	}

	snapshot, ok := m.store.Get(id)
	if !ok {
		return MonitoringSignals{}, fmt.Errorf("session %q after append: %w", id, ErrSessionNotFound)
	}

	eval := &Evaluation{
		Snapshot:      snapshot,
		Turn:          snapshot.History[index-1],
		Metrics:       snapshot.Metrics,
		TotalEstimate: req.TotalEstimate,
		Signals: MonitoringSignals{
			SessionID: id,
			Index:     index,
		},
	}

	eval, err = m.pipeline.Process(ctx, eval)
	if err != nil {
		return MonitoringSignals{}, fmt.Errorf("monitoring pipeline: %w", err)
	}

	m.store.commitMetrics(id, index, quality, eval.Metrics)

	capitan.Emit(ctx, ThoughtProcessed,
		FieldSessionID.Field(id),
		FieldTurnIndex.Field(index),
		FieldPhase.Field(string(eval.Signals.Phase)),
		FieldLoad.Field(float32(eval.Signals.CognitiveLoad)),
	)
	m.emitAlerts(ctx, eval.Signals)
	return eval.Signals, nil
}

// Status reports store-level health for the status surface.
func (m *Monitor) Status() StoreStats {
	return m.store.Stats()
}

// buildPipeline assembles the fixed detector sequence. Each stage folds one
// detector's state forward and records its signal.
func (m *Monitor) buildPipeline() *pipz.Sequence[*Evaluation] {
	circularStage := Transform("circular-reasoning", func(_ context.Context, e *Evaluation) *Evaluation {
		e.Signals.Circular, e.Metrics.Circular = m.circular.Evaluate(e.Snapshot.History, e.Metrics.Circular)
		return e
	})

	distractorStage := Transform("distractor-fixation", func(_ context.Context, e *Evaluation) *Evaluation {
		e.Signals.Distractor, e.Metrics.Distractor = m.distractor.Evaluate(e.Turn, e.Snapshot.OriginalQuery, e.Metrics.Distractor)
		return e
	})

	qualityStage := Transform("quality-degradation", func(_ context.Context, e *Evaluation) *Evaluation {
		if e.Turn.Quality == nil {
			// Unscored turns report the rolling state without folding it.
			e.Signals.Quality = QualitySignal{
				Trend:    TrendStable,
				Current:  e.Metrics.Quality.Rolling,
				Baseline: e.Metrics.Quality.Baseline,
			}
			return e
		}
		e.Signals.Quality, e.Metrics.Quality = m.quality.Evaluate(*e.Turn.Quality, e.Metrics.Quality)
		return e
	})

	loadStage := Transform("cognitive-load", func(_ context.Context, e *Evaluation) *Evaluation {
		e.Signals.CognitiveLoad = clamp01(
			0.6*e.Signals.Circular.Score + 0.4*(1-e.Signals.Distractor.Relevance),
		)
		return e
	})

	phaseStage := Transform("phase", func(_ context.Context, e *Evaluation) *Evaluation {
		e.Signals.Phase = PhaseFor(e.Turn.Index, e.TotalEstimate)
		return e
	})

	return Sequence("monitoring",
		circularStage,
		distractorStage,
		qualityStage,
		loadStage,
		phaseStage,
	)
}

// emitAlerts publishes one AlertRaised event per active detector.
func (m *Monitor) emitAlerts(ctx context.Context, signals MonitoringSignals) {
	if signals.Circular.Alert {
		capitan.Emit(ctx, AlertRaised,
			FieldSessionID.Field(signals.SessionID),
			FieldDetector.Field("circular"),
			FieldScore.Field(float32(signals.Circular.Score)),
			FieldConsecutive.Field(signals.Circular.Consecutive),
		)
	}
	if signals.Distractor.Alert {
		capitan.Emit(ctx, AlertRaised,
			FieldSessionID.Field(signals.SessionID),
			FieldDetector.Field("distractor"),
			FieldScore.Field(float32(signals.Distractor.Relevance)),
			FieldConsecutive.Field(signals.Distractor.Consecutive),
		)
	}
	if signals.Quality.Alert {
		capitan.Emit(ctx, AlertRaised,
			FieldSessionID.Field(signals.SessionID),
			FieldDetector.Field("quality"),
			FieldTrend.Field(string(signals.Quality.Trend)),
		)
	}
}

// PhaseFor maps a 1-based turn index onto the reasoning arc. With no
// estimate the session is treated as still exploring.
func PhaseFor(index, totalEstimate int) Phase {
	if totalEstimate <= 0 {
		return PhaseExploration
	}

	ratio := float64(index) / float64(totalEstimate)
	switch {
	case ratio < explorationBoundary:
		return PhaseExploration
	case ratio <= synthesisBoundary:
		return PhaseSynthesis
	default:
		return PhaseConclusion
	}
}
