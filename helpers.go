package vigil

import (
	"context"

	"github.com/zoobzio/pipz"
)

// Adapter functions wrapping pipz connectors for Evaluation values. The
// monitor builds its pipeline from these; callers composing custom
// monitoring stages use the same adapters.

// Do creates a processor from a function that can fail.
//
// Example:
//
//	flag := vigil.Do("flag-short", func(ctx context.Context, e *vigil.Evaluation) (*vigil.Evaluation, error) {
//	    if len(e.Turn.Content) < 20 {
//	        e.Signals.Quality.Trend = vigil.TrendDegrading
//	    }
//	    return e, nil
//	})
func Do(name string, fn func(context.Context, *Evaluation) (*Evaluation, error)) pipz.Processor[*Evaluation] {
	return pipz.Apply(pipz.Name(name), fn)
}

// Transform creates a processor from a pure transformation function.
// Use this when the stage cannot fail.
func Transform(name string, fn func(context.Context, *Evaluation) *Evaluation) pipz.Processor[*Evaluation] {
	return pipz.Transform(pipz.Name(name), fn)
}

// Effect creates a processor that observes without modifying the
// evaluation. Use this for logging or metrics stages.
func Effect(name string, fn func(context.Context, *Evaluation) error) pipz.Processor[*Evaluation] {
	return pipz.Effect(pipz.Name(name), fn)
}

// Sequence creates a sequential pipeline of evaluation processors.
//
// Example:
//
//	pipeline := vigil.Sequence("custom-monitoring",
//	    circularStage,
//	    relevanceStage,
//	)
func Sequence(name string, processors ...pipz.Chainable[*Evaluation]) *pipz.Sequence[*Evaluation] {
	return pipz.NewSequence(pipz.Name(name), processors...)
}

// Filter creates a conditional processor. When the predicate returns true
// the processor runs; otherwise the evaluation passes through unchanged.
func Filter(name string, predicate func(context.Context, *Evaluation) bool, processor pipz.Chainable[*Evaluation]) *pipz.Filter[*Evaluation] {
	return pipz.NewFilter(pipz.Name(name), predicate, processor)
}
