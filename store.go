package vigil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Session lifetime defaults. Conversational sessions hold full reasoning
// threads; monitor-only sessions exist to carry detector state for callers
// that keep their own history, so they expire much sooner.
const (
	DefaultTTL           = 3 * time.Hour
	DefaultMonitorTTL    = 30 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

// DefaultSessionID is the well-known id used when a caller supplies none.
// Modeling the ambient "no session" case as a constant keeps it addressable
// in tests instead of hiding it in implicit state.
const DefaultSessionID = "default"

// Metrics is the rolling monitoring state carried by each session and
// updated after every processed turn.
type Metrics struct {
	Circular   CircularState
	Distractor DistractorState
	Quality    QualityState
}

// session is the store-owned mutable record. Nothing outside the store
// holds a reference to it; all reads go through snapshots.
type session struct {
	id            string
	createdAt     time.Time
	lastAccessed  time.Time
	ttl           time.Duration
	originalQuery string
	history       []Turn
	branches      map[string][]int
	metrics       Metrics
	interventions []InterventionRecord
}

// SessionSnapshot is a read-only copy of a session's state, safe to process
// without holding the store lock.
type SessionSnapshot struct {
	ID            string
	CreatedAt     time.Time
	LastAccessed  time.Time
	OriginalQuery string
	History       []Turn
	Branches      map[string][]int
	Metrics       Metrics
	Interventions []InterventionRecord
}

// StoreStats summarizes the store for status reporting.
type StoreStats struct {
	ActiveSessions         int
	OldestSessionAge       time.Duration
	AverageTurnsPerSession float64
}

// SessionStore is a concurrent map of reasoning sessions with time-based
// eviction.
//
// # Concurrency
//
// A single coarse mutex guards the map. Operations are O(1) map access plus
// O(history) copying, never network or disk I/O, so contention stays low.
// Callers must not hold results of Get across an external model call and
// expect them to stay current; fetch, release, call, then append the result
// in a second short critical section.
type SessionStore struct {
	mu         sync.Mutex
	sessions   map[string]*session
	ttl        time.Duration
	monitorTTL time.Duration
	now        func() time.Time
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithTTL overrides the conversational session TTL.
func WithTTL(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.ttl = d }
}

// WithMonitorTTL overrides the monitor-only session TTL.
func WithMonitorTTL(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.monitorTTL = d }
}

// WithClock overrides the store's clock. Tests use this to drive expiry
// deterministically.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SessionStore) { s.now = now }
}

// NewSessionStore creates an empty store with the default TTLs.
//
// Example:
//
//	store := vigil.NewSessionStore()
//	go store.Sweep(ctx, vigil.DefaultSweepInterval)
//	id := store.Create()
func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		sessions:   make(map[string]*session),
		ttl:        DefaultTTL,
		monitorTTL: DefaultMonitorTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a fresh conversational session and returns its id.
func (s *SessionStore) Create() string {
	return s.create(uuid.New().String(), s.ttl)
}

// CreateMonitorOnly allocates a session with the short monitoring TTL.
func (s *SessionStore) CreateMonitorOnly() string {
	return s.create(uuid.New().String(), s.monitorTTL)
}

// GetOrCreate returns the given id, creating the session if the store does
// not hold a live one. An empty id maps to DefaultSessionID. This is the
// leniency path used by the monitor: the first call for an unseen id is a
// session start, not an error.
func (s *SessionStore) GetOrCreate(id string) string {
	if id == "" {
		id = DefaultSessionID
	}

	s.mu.Lock()
	sess, ok := s.live(id)
	if ok {
		sess.lastAccessed = s.now()
		s.mu.Unlock()
		return id
	}
	s.newSessionLocked(id, s.ttl)
	s.mu.Unlock()

	capitan.Emit(context.Background(), SessionCreated, FieldSessionID.Field(id))
	return id
}

// Get returns a read-only snapshot of the session and refreshes its
// last-accessed time. The second return is false for unknown or expired
// ids - callers treat that as "start fresh", not as an error.
func (s *SessionStore) Get(id string) (SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return SessionSnapshot{}, false
	}
	sess.lastAccessed = s.now()
	return sess.snapshot(), true
}

// Append adds a turn to the session's history and returns its assigned
// 1-based index. Fails with ErrSessionNotFound for unknown or evicted ids
// and ErrInvalidTurnIndex when Revises or BranchFrom fall outside history.
func (s *SessionStore) Append(id string, turn Turn) (int, error) {
	s.mu.Lock()
	sess, ok := s.live(id)
	if !ok {
		s.mu.Unlock()
		return 0, fmt.Errorf("append to session %q: %w", id, ErrSessionNotFound)
	}

	n := len(sess.history)
	if turn.Revises != 0 && (turn.Revises < 1 || turn.Revises > n) {
		s.mu.Unlock()
		return 0, fmt.Errorf("revises %d of %d turns: %w", turn.Revises, n, ErrInvalidTurnIndex)
	}
	if turn.BranchFrom != 0 && (turn.BranchFrom < 1 || turn.BranchFrom > n) {
		s.mu.Unlock()
		return 0, fmt.Errorf("branch from %d of %d turns: %w", turn.BranchFrom, n, ErrInvalidTurnIndex)
	}

	turn.Index = n + 1
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	if n == 0 {
		sess.originalQuery = turn.Content
	}
	sess.history = append(sess.history, turn)
	if turn.BranchID != "" {
		sess.branches[turn.BranchID] = append(sess.branches[turn.BranchID], turn.Index)
	}
	sess.lastAccessed = s.now()
	s.mu.Unlock()

	capitan.Emit(context.Background(), TurnAppended,
		FieldSessionID.Field(id),
		FieldTurnIndex.Field(turn.Index),
		FieldRole.Field(string(turn.Role)),
		FieldContentSize.Field(len(turn.Content)),
	)
	return turn.Index, nil
}

// ContinueFrom copies the history, original query, and rolling metrics of
// an existing session onto newID, creating the target if the store has not
// seen it. It supports callers that were issued a new id but want to keep
// prior context.
func (s *SessionStore) ContinueFrom(oldID, newID string) error {
	s.mu.Lock()
	src, ok := s.live(oldID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("continue from session %q: %w", oldID, ErrSessionNotFound)
	}

	dst, ok := s.live(newID)
	if !ok {
		dst = s.newSessionLocked(newID, src.ttl)
	}
	dst.history = cloneTurns(src.history)
	dst.branches = cloneBranches(src.branches)
	dst.originalQuery = src.originalQuery
	dst.metrics = src.metrics
	dst.interventions = append([]InterventionRecord(nil), src.interventions...)
	dst.lastAccessed = s.now()
	s.mu.Unlock()

	capitan.Emit(context.Background(), SessionContinued,
		FieldSessionID.Field(newID),
		FieldTurnIndex.Field(len(dst.history)),
	)
	return nil
}

// EvictExpired removes every session idle longer than its TTL, measured
// against the supplied now, and returns the number removed.
func (s *SessionStore) EvictExpired(now time.Time) int {
	s.mu.Lock()
	var evicted []string
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccessed) > sess.ttl {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	for _, id := range evicted {
		capitan.Emit(context.Background(), SessionEvicted,
			FieldSessionID.Field(id),
			FieldSessionCount.Field(remaining),
		)
	}
	return len(evicted)
}

// Sweep runs EvictExpired on a fixed interval until ctx is done. Run it on
// its own goroutine:
//
//	go store.Sweep(ctx, vigil.DefaultSweepInterval)
func (s *SessionStore) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictExpired(s.now())
		}
	}
}

// Stats reports active session count, the oldest session's age, and the
// mean number of turns per session.
func (s *SessionStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := StoreStats{ActiveSessions: len(s.sessions)}
	if len(s.sessions) == 0 {
		return stats
	}

	totalTurns := 0
	for _, sess := range s.sessions {
		if age := now.Sub(sess.createdAt); age > stats.OldestSessionAge {
			stats.OldestSessionAge = age
		}
		totalTurns += len(sess.history)
	}
	stats.AverageTurnsPerSession = float64(totalTurns) / float64(len(s.sessions))
	return stats
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// commitMetrics writes back rolling metrics computed off-lock from a
// snapshot, and attaches scored quality to the turn at index when the
// caller scored it after appending. No-op if the session expired meanwhile.
func (s *SessionStore) commitMetrics(id string, index int, q *Quality, m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return
	}
	sess.metrics = m
	if q != nil && index >= 1 && index <= len(sess.history) {
		quality := *q
		sess.history[index-1].Quality = &quality
	}
}

// recordIntervention appends an intervention record to the session's log.
func (s *SessionStore) recordIntervention(id string, rec InterventionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.live(id); ok {
		sess.interventions = append(sess.interventions, rec)
	}
}

func (s *SessionStore) create(id string, ttl time.Duration) string {
	s.mu.Lock()
	s.newSessionLocked(id, ttl)
	s.mu.Unlock()

	capitan.Emit(context.Background(), SessionCreated, FieldSessionID.Field(id))
	return id
}

// newSessionLocked allocates a session record. Caller holds the lock.
func (s *SessionStore) newSessionLocked(id string, ttl time.Duration) *session {
	now := s.now()
	sess := &session{
		id:           id,
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
		branches:     make(map[string][]int),
	}
	s.sessions[id] = sess
	return sess
}

// live returns the session if present and not past its TTL. Expired
// sessions are left for the sweep; they just become invisible. Caller
// holds the lock.
func (s *SessionStore) live(id string) (*session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.lastAccessed) > sess.ttl {
		return nil, false
	}
	return sess, true
}

func (sess *session) snapshot() SessionSnapshot {
	return SessionSnapshot{
		ID:            sess.id,
		CreatedAt:     sess.createdAt,
		LastAccessed:  sess.lastAccessed,
		OriginalQuery: sess.originalQuery,
		History:       cloneTurns(sess.history),
		Branches:      cloneBranches(sess.branches),
		Metrics:       sess.metrics,
		Interventions: append([]InterventionRecord(nil), sess.interventions...),
	}
}

func cloneTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	for i := range out {
		if out[i].Quality != nil {
			q := *out[i].Quality
			out[i].Quality = &q
		}
	}
	return out
}

func cloneBranches(branches map[string][]int) map[string][]int {
	out := make(map[string][]int, len(branches))
	for id, indices := range branches {
		out[id] = append([]int(nil), indices...)
	}
	return out
}
