// Package evidence defines the retrieval collaborator boundary.
// Retrieval itself (full-text or vector search) lives outside the
// orchestration core; the core only consumes scored text snippets.
package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Snippet is a short retrieved text fragment grounding a generation
// call in external facts.
type Snippet struct {
	// Text is the snippet content.
	Text string `json:"text"`
	// Score is the retrieval relevance score, higher is better.
	Score float64 `json:"score"`
}

// Searcher retrieves evidence snippets for an agent and query.
// An empty result is a valid, expected outcome, not an error.
type Searcher interface {
	Search(ctx context.Context, agentID, query string) ([]Snippet, error)
}

// NopSearcher returns no results for every query.
type NopSearcher struct{}

// Search always returns an empty result.
func (NopSearcher) Search(context.Context, string, string) ([]Snippet, error) {
	return nil, nil
}

// StaticSearcher serves snippets from an in-memory index keyed by
// agent ID. Used by the CLI for file-imported evidence and by tests.
type StaticSearcher struct {
	mu      sync.RWMutex
	byAgent map[string][]Snippet
	maxHits int
}

// NewStaticSearcher creates a StaticSearcher returning at most maxHits
// snippets per query. maxHits <= 0 means unlimited.
func NewStaticSearcher(maxHits int) *StaticSearcher {
	return &StaticSearcher{
		byAgent: make(map[string][]Snippet),
		maxHits: maxHits,
	}
}

// Add registers a snippet for an agent.
func (s *StaticSearcher) Add(agentID string, snippet Snippet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAgent[agentID] = append(s.byAgent[agentID], snippet)
}

// Search returns the agent's snippets whose text shares a word with the
// query, best scores first.
func (s *StaticSearcher) Search(_ context.Context, agentID, query string) ([]Snippet, error) {
	s.mu.RLock()
	candidates := s.byAgent[agentID]
	s.mu.RUnlock()

	words := strings.Fields(strings.ToLower(query))
	var hits []Snippet
	for _, snippet := range candidates {
		text := strings.ToLower(snippet.Text)
		for _, w := range words {
			if strings.Contains(text, w) {
				hits = append(hits, snippet)
				break
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if s.maxHits > 0 && len(hits) > s.maxHits {
		hits = hits[:s.maxHits]
	}
	return hits, nil
}
