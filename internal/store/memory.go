package store

import (
	"sort"
	"sync"

	"github.com/troupehq/troupe/pkg/models"
)

// Memory is an in-memory Store for tests and ephemeral sessions.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]models.AgentProfile
	edges    map[[2]string]models.RelationshipEdge
	turns    map[string][]models.Turn
	keys     map[string]struct{}
	runs     map[string][]models.RunRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]models.AgentProfile),
		edges:    make(map[[2]string]models.RelationshipEdge),
		turns:    make(map[string][]models.Turn),
		keys:     make(map[string]struct{}),
		runs:     make(map[string][]models.RunRecord),
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Migrate is a no-op.
func (m *Memory) Migrate() error { return nil }

func (m *Memory) SaveAgentProfile(p *models.AgentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = *p
	return nil
}

func (m *Memory) AgentProfile(id string) (*models.AgentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListAgentProfiles() ([]models.AgentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.AgentProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) SetCanonLocked(id string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.CanonLocked = locked
	m.profiles[id] = p
	return nil
}

func (m *Memory) SaveRelationship(e models.RelationshipEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[[2]string{e.From, e.To}] = e
	return nil
}

func (m *Memory) Relationships(ids []string) ([]models.RelationshipEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.RelationshipEdge
	for _, e := range m.edges {
		if _, ok := want[e.From]; !ok {
			continue
		}
		if _, ok := want[e.To]; !ok {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out, nil
}

func (m *Memory) PersistTurn(t *models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.keys[t.DedupKey]; dup {
		return nil
	}
	m.keys[t.DedupKey] = struct{}{}
	m.turns[t.SessionID] = append(m.turns[t.SessionID], *t)
	return nil
}

func (m *Memory) RecordRun(r *models.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.SessionID] = append(m.runs[r.SessionID], *r)
	return nil
}

func (m *Memory) RunsBySession(sessionID string) ([]models.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]models.RunRecord, len(m.runs[sessionID]))
	copy(runs, m.runs[sessionID])
	return runs, nil
}

func (m *Memory) TurnsBySession(sessionID string) ([]models.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := make([]models.Turn, len(m.turns[sessionID]))
	copy(turns, m.turns[sessionID])
	sort.Slice(turns, func(i, j int) bool { return turns[i].Order < turns[j].Order })
	return turns, nil
}
