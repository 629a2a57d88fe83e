package vigil

import (
	"math"
	"strings"
)

// Quality-degradation detection defaults.
const (
	DefaultBaselineWindow      = 3
	DefaultTrendWindow         = 3
	DefaultSmoothingAlpha      = 0.5
	DefaultDegradationFraction = 0.40
	DefaultTrendFlatBand       = 0.05
)

// Trend classifies the direction of a session's quality rolling average.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// QualityState is the rolling state the quality-degradation detector keeps
// per session.
type QualityState struct {
	// Baseline is the mean of the first BaselineWindow quality samples,
	// frozen once BaselineCount reaches the window.
	Baseline      Quality
	BaselineCount int

	// Rolling is the exponentially decayed average; PrevRolling is its
	// value one sample earlier, kept for slope classification.
	Rolling     Quality
	PrevRolling Quality
	Samples     int
}

// QualitySignal is the detector's output for one turn.
type QualitySignal struct {
	Trend    Trend
	Current  Quality
	Baseline Quality
	Alert    bool
}

// QualityDegradationDetector watches per-turn quality metrics for sustained
// decline. A frozen baseline is taken over the first few turns; an
// exponentially decayed rolling average is compared against it, alerting
// when any metric falls more than DegradationFraction below baseline.
type QualityDegradationDetector struct {
	BaselineWindow      int
	TrendWindow         int
	Alpha               float64
	DegradationFraction float64
	FlatBand            float64
}

// NewQualityDegradationDetector creates a detector with the default windows
// and smoothing factor.
func NewQualityDegradationDetector() *QualityDegradationDetector {
	return &QualityDegradationDetector{
		BaselineWindow:      DefaultBaselineWindow,
		TrendWindow:         DefaultTrendWindow,
		Alpha:               DefaultSmoothingAlpha,
		DegradationFraction: DefaultDegradationFraction,
		FlatBand:            DefaultTrendFlatBand,
	}
}

// Evaluate folds one quality sample into the rolling state.
//
// The exponential decay avg = alpha*sample + (1-alpha)*avg keeps the rolling
// average bounded between the newest sample and the previous average, so a
// single extreme step can never overshoot.
func (d *QualityDegradationDetector) Evaluate(q Quality, state QualityState) (QualitySignal, QualityState) {
	state.PrevRolling = state.Rolling
	state.Samples++

	if state.Samples == 1 {
		state.Rolling = q
	} else {
		state.Rolling = Quality{
			Coherence:          d.decay(q.Coherence, state.Rolling.Coherence),
			InformationDensity: d.decay(q.InformationDensity, state.Rolling.InformationDensity),
			Confidence:         d.decay(q.Confidence, state.Rolling.Confidence),
		}
	}

	// Baseline accumulates as a running mean, then freezes.
	if state.BaselineCount < d.BaselineWindow {
		n := float64(state.BaselineCount)
		state.Baseline = Quality{
			Coherence:          (state.Baseline.Coherence*n + q.Coherence) / (n + 1),
			InformationDensity: (state.Baseline.InformationDensity*n + q.InformationDensity) / (n + 1),
			Confidence:         (state.Baseline.Confidence*n + q.Confidence) / (n + 1),
		}
		state.BaselineCount++
	}

	signal := QualitySignal{
		Trend:    d.classifyTrend(state),
		Current:  state.Rolling,
		Baseline: state.Baseline,
	}
	if state.BaselineCount >= d.BaselineWindow {
		signal.Alert = d.degraded(state.Rolling, state.Baseline)
	}

	return signal, state
}

func (d *QualityDegradationDetector) decay(sample, avg float64) float64 {
	return d.Alpha*sample + (1-d.Alpha)*avg
}

// degraded reports whether any metric's rolling average has fallen more
// than DegradationFraction below its baseline.
func (d *QualityDegradationDetector) degraded(rolling, baseline Quality) bool {
	floor := 1 - d.DegradationFraction
	return rolling.Coherence < baseline.Coherence*floor ||
		rolling.InformationDensity < baseline.InformationDensity*floor ||
		rolling.Confidence < baseline.Confidence*floor
}

// classifyTrend compares the last two rolling-average samples. Slopes within
// the flat band either side of the previous value count as stable.
func (d *QualityDegradationDetector) classifyTrend(state QualityState) Trend {
	if state.Samples < 2 {
		return TrendStable
	}

	prev := overall(state.PrevRolling)
	curr := overall(state.Rolling)
	if math.Abs(curr-prev) <= prev*d.FlatBand {
		return TrendStable
	}
	if curr > prev {
		return TrendImproving
	}
	return TrendDegrading
}

func overall(q Quality) float64 {
	return (q.Coherence + q.InformationDensity + q.Confidence) / 3
}

// QualityScorer produces quality metrics for a turn when the caller does
// not supply externally computed ones.
type QualityScorer interface {
	Score(content string) Quality
}

// HeuristicQualityScorer is the default scorer: cheap lexical heuristics
// over sentence structure, vocabulary diversity, and reasoning markers.
// Good enough to drive trend detection; callers with a real evaluator
// attach their own metrics instead.
type HeuristicQualityScorer struct{}

// NewHeuristicQualityScorer creates the default quality scorer.
func NewHeuristicQualityScorer() *HeuristicQualityScorer {
	return &HeuristicQualityScorer{}
}

var reasoningMarkers = []string{
	"because", "therefore", "thus", "hence", "considering", "however",
	"consequently", "accordingly",
}

var hedgeMarkers = []string{
	"maybe", "perhaps", "possibly", "not sure", "might be", "unclear",
}

// Score implements QualityScorer.
func (s *HeuristicQualityScorer) Score(content string) Quality {
	words := strings.Fields(content)
	lower := strings.ToLower(content)
	sentences := strings.Count(content, ".") + strings.Count(content, "!") + strings.Count(content, "?")

	coherence := 0.5
	if len(words) < 10 {
		coherence -= 0.2
	} else if len(words) > 200 {
		coherence -= 0.1
	}
	if sentences > 1 && sentences < len(words)/10 {
		coherence += 0.2
	}
	for _, m := range reasoningMarkers {
		if strings.Contains(lower, m) {
			coherence += 0.05
		}
	}

	// Type-token ratio as a proxy for information density.
	density := 0.0
	if len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[strings.ToLower(w)] = struct{}{}
		}
		density = float64(len(unique)) / float64(len(words))
	}

	confidence := 0.6
	for _, m := range hedgeMarkers {
		if strings.Contains(lower, m) {
			confidence -= 0.1
		}
	}
	for _, m := range reasoningMarkers {
		if strings.Contains(lower, m) {
			confidence += 0.05
		}
	}

	return Quality{
		Coherence:          clamp01(coherence),
		InformationDensity: clamp01(density),
		Confidence:         clamp01(confidence),
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
