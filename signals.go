package vigil

import "github.com/zoobzio/capitan"

// Signal definitions for vigil monitoring events.
// Signals follow the pattern: vigil.<entity>.<event>.
var (
	// Session lifecycle signals.
	SessionCreated = capitan.NewSignal(
		"vigil.session.created",
		"New reasoning session allocated in the store",
	)
	SessionContinued = capitan.NewSignal(
		"vigil.session.continued",
		"Session history copied onto a new session id",
	)
	SessionEvicted = capitan.NewSignal(
		"vigil.session.evicted",
		"Idle session removed by the eviction sweep",
	)

	// Turn signals.
	TurnAppended = capitan.NewSignal(
		"vigil.turn.appended",
		"Reasoning turn appended to session history",
	)

	// Monitoring signals.
	ThoughtProcessed = capitan.NewSignal(
		"vigil.thought.processed",
		"Turn evaluated by the full detector pipeline",
	)
	AlertRaised = capitan.NewSignal(
		"vigil.alert.raised",
		"Detector crossed its alert threshold for a session",
	)
	InterventionIssued = capitan.NewSignal(
		"vigil.intervention.issued",
		"Intervention engine decided to issue corrective guidance",
	)

	// Context signals.
	ContextReconstructed = capitan.NewSignal(
		"vigil.context.reconstructed",
		"Token-bounded context assembled for the next model call",
	)
	GuidanceSynthesized = capitan.NewSignal(
		"vigil.guidance.synthesized",
		"Intervention guidance rephrased through the transform synapse",
	)
)

// Field keys for vigil event data.
var (
	// Session metadata.
	FieldSessionID    = capitan.NewStringKey("session_id")
	FieldSessionCount = capitan.NewIntKey("session_count")

	// Turn metadata.
	FieldTurnIndex   = capitan.NewIntKey("turn_index")
	FieldRole        = capitan.NewStringKey("role")
	FieldContentSize = capitan.NewIntKey("content_size") // character count

	// Detector output.
	FieldDetector    = capitan.NewStringKey("detector") // circular, distractor, quality
	FieldScore       = capitan.NewFloat32Key("score")
	FieldConsecutive = capitan.NewIntKey("consecutive")
	FieldTrend       = capitan.NewStringKey("trend")
	FieldPhase       = capitan.NewStringKey("phase")
	FieldLoad        = capitan.NewFloat32Key("cognitive_load")

	// Intervention metadata.
	FieldKind     = capitan.NewStringKey("kind")
	FieldSeverity = capitan.NewFloat32Key("severity")

	// Context metrics.
	FieldTokenCount = capitan.NewIntKey("token_count")
	FieldDuration   = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
