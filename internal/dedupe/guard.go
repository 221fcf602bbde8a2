// Package dedupe guards generation runs against duplicate turn
// emission when streams are retried or a model repeats a speaker.
package dedupe

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Phase tracks a session's position in its run lifecycle.
type Phase int

const (
	// PhaseIdle means no run is active for the session.
	PhaseIdle Phase = iota
	// PhaseInitialized means Begin has been called and the session's
	// key space is clean.
	PhaseInitialized
	// PhaseAccumulating means at least one key has been marked.
	PhaseAccumulating
	// PhaseCompleted means the session's run finished and its keys are
	// scheduled for removal after the grace period.
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitialized:
		return "initialized"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// session is one session's lifecycle and claimed keys.
type session struct {
	phase Phase
	runID string
	seen  map[string]struct{}
}

// Guard is a duplicate filter keyed by run-scoped turn keys, with an
// independent lifecycle per session: concurrent sessions never see
// each other's keys or phases. Mark is the single gate: the first
// caller for a key wins, every later caller for the same key is told
// to stand down. Safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	sessions map[string]*session
	grace    time.Duration
}

// NewGuard returns a guard whose completed-session keys linger for the
// given grace period before deletion, so late stragglers from an
// already-finished run still get rejected instead of re-emitted.
func NewGuard(grace time.Duration) *Guard {
	return &Guard{
		sessions: make(map[string]*session),
		grace:    grace,
	}
}

// Phase returns the session's current lifecycle phase.
func (g *Guard) Phase(sessionID string) Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[sessionID]
	if s == nil {
		return PhaseIdle
	}
	return s.phase
}

// Begin opens a new run for the session. Any keys left over from a
// previous run on the same session are cleared immediately: a crashed
// or abandoned run must not block its successor. Other sessions are
// untouched.
func (g *Guard) Begin(sessionID, runID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old := g.sessions[sessionID]; old != nil && len(old.seen) > 0 {
		log.Printf("[dedupe] cleared %d leaked keys on session %s before run %s", len(old.seen), sessionID, runID)
	}
	g.sessions[sessionID] = &session{
		phase: PhaseInitialized,
		runID: runID,
		seen:  make(map[string]struct{}),
	}
}

// Mark claims key for the session's current run. It returns true
// exactly once per key; concurrent callers racing on the same key see
// exactly one true. Marking outside an active run is refused.
func (g *Guard) Mark(sessionID, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions[sessionID]
	if s == nil || (s.phase != PhaseInitialized && s.phase != PhaseAccumulating) {
		phase := PhaseIdle
		if s != nil {
			phase = s.phase
		}
		log.Printf("[dedupe] mark refused on session %s in phase %s: %s", sessionID, phase, key)
		return false
	}
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.phase = PhaseAccumulating
	return true
}

// Seen reports whether key has been claimed on the session without
// claiming it.
func (g *Guard) Seen(sessionID, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[sessionID]
	if s == nil {
		return false
	}
	_, ok := s.seen[key]
	return ok
}

// Complete closes the session's run. Its keys stay rejectable for the
// grace period and are then deleted, provided no new run has started
// on the session in the meantime.
func (g *Guard) Complete(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions[sessionID]
	if s == nil || s.phase == PhaseCompleted {
		return
	}
	s.phase = PhaseCompleted
	runID := s.runID

	time.AfterFunc(g.grace, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		cur := g.sessions[sessionID]
		if cur == nil || cur.runID != runID || cur.phase != PhaseCompleted {
			return // a newer run owns the session now
		}
		delete(g.sessions, sessionID)
	})
}
