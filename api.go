// Package vigil provides metacognitive monitoring for LLM reasoning sessions.
//
// vigil watches a stream of reasoning turns for failure patterns that
// sequential reasoning is prone to, and produces corrective guidance when
// one takes hold.
//
// # Core Types
//
// The package is built around four core concepts:
//
//   - [SessionStore] - In-memory session registry with TTL-based eviction
//   - [Monitor] - Runs each turn through the detector pipeline
//   - [InterventionEngine] - Turns detector signals into corrective guidance
//   - [Reconstructor] - Assembles token-bounded context from session history
//
// # Detectors
//
// Three rolling-window detectors evaluate every processed turn:
//
//   - [CircularReasoningDetector] - Near-duplicate content recurring across
//     nearby turns
//   - [DistractorFixationDetector] - Sustained drift away from the session's
//     original query
//   - [QualityDegradationDetector] - Rolling quality falling well below the
//     session's early baseline
//
// All three share per-session state kept in the store, so single detector
// instances serve any number of concurrent sessions.
//
// # Processing Thoughts
//
// Use [NewMonitor] and [Monitor.ProcessThought] to feed turns in:
//
//	store := vigil.NewSessionStore()
//	monitor := vigil.NewMonitor(vigil.WithStore(store))
//
//	signals, err := monitor.ProcessThought(ctx, vigil.ThoughtRequest{
//	    Content:       "First, enumerate the constraints...",
//	    TotalEstimate: 10,
//	})
//
//	engine := vigil.NewInterventionEngine(store)
//	if iv, ok := engine.Decide(ctx, signals); ok {
//	    // Inject iv.Message into the next prompt.
//	}
//
// # Pipeline Helpers
//
// vigil wraps pipz connectors for Evaluation processing, so callers can
// compose custom monitoring stages:
//
//   - [Sequence] - Sequential execution
//   - [Filter] - Conditional execution
//   - [Do], [Transform], [Effect] - Function adapters
//
// # Guidance Synthesis
//
// The optional [GuidanceSynthesizer] rewrites an intervention's template
// message into session-specific guidance via an LLM. Provider access uses a
// resolution hierarchy:
//
//  1. Explicit parameter (.WithProvider(p))
//  2. Context value (vigil.WithProvider(ctx, p))
//  3. Global default (vigil.SetProvider(p))
//
// # Observability
//
// vigil emits capitan signals throughout execution. See signals.go for the
// complete list of events including SessionCreated, TurnAppended,
// AlertRaised, InterventionIssued, and ContextReconstructed.
package vigil
