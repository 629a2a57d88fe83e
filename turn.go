package vigil

import "time"

// Role identifies who produced a turn in a reasoning chain.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Quality holds structured quality metrics for a single turn.
// All values are in [0,1].
type Quality struct {
	Coherence          float64
	InformationDensity float64
	Confidence         float64
}

// Turn is one step in a session's reasoning chain.
//
// Turns are append-only: once the store assigns an Index, the turn is never
// mutated except to attach Quality after scoring, and never removed except
// by whole-session eviction.
type Turn struct {
	// Index is the 1-based position in the session's history,
	// assigned by the store on append.
	Index int

	Role    Role
	Content string

	// Origin labels the tool or caller that produced this turn. Informational.
	Origin string

	// Quality is attached after scoring, either supplied by the caller or
	// computed by the monitor's quality scorer.
	Quality *Quality

	// BranchID groups turns forming an alternate continuation from a named
	// point in the main sequence. Empty for the main line.
	BranchID string

	// BranchFrom is the index this branch forks from. Zero for the main line.
	BranchFrom int

	// Revises is the index of an earlier turn this one supersedes.
	// Informational only; history is never rewritten. Zero when unset.
	Revises int

	CreatedAt time.Time
}

// InterventionRecord captures one intervention decision in a session's log.
// It is reporting-only: nothing downstream keys off past records.
type InterventionRecord struct {
	AtIndex  int
	Kind     InterventionKind
	Severity float64
	Message  string
}
