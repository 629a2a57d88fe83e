package vigil

// Evaluation is the value flowing through the monitor's pipeline: one newly
// appended turn, the session snapshot it landed in, and the rolling detector
// state being folded forward. Stages read the snapshot and write into
// Metrics and Signals.
type Evaluation struct {
	Snapshot SessionSnapshot
	Turn     Turn

	// Metrics is the detector state carried forward; the monitor commits it
	// back to the session after the pipeline completes.
	Metrics Metrics

	// Signals accumulates per-stage outputs for this turn.
	Signals MonitoringSignals

	// TotalEstimate is the caller's estimate of total reasoning steps,
	// used for phase classification. Zero means unknown.
	TotalEstimate int
}

// Clone returns a deep copy so parallel pipeline stages can work on
// isolated state.
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}

	clone := *e
	clone.Snapshot.History = cloneTurns(e.Snapshot.History)
	clone.Snapshot.Branches = cloneBranches(e.Snapshot.Branches)
	clone.Snapshot.Interventions = append([]InterventionRecord(nil), e.Snapshot.Interventions...)
	if e.Turn.Quality != nil {
		q := *e.Turn.Quality
		clone.Turn.Quality = &q
	}
	return &clone
}

// Verify Evaluation satisfies the cloner contract required by parallel
// pipz connectors.
var _ interface{ Clone() *Evaluation } = (*Evaluation)(nil)
