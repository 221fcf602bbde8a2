package scenario

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/troupehq/troupe/internal/broadcast"
	"github.com/troupehq/troupe/internal/classify"
	"github.com/troupehq/troupe/internal/compose"
	"github.com/troupehq/troupe/internal/config"
	"github.com/troupehq/troupe/internal/dedupe"
	"github.com/troupehq/troupe/internal/evidence"
	"github.com/troupehq/troupe/internal/parse"
	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/internal/retry"
	"github.com/troupehq/troupe/internal/store"
	"github.com/troupehq/troupe/pkg/models"
)

// dialogueTemperature is the sampling temperature for character turns.
// Classification runs much colder; dialogue wants some variety.
const dialogueTemperature = 0.8

// Service generates multi-character dialogue. One Service can serve
// many sessions; each Generate call is an independent run.
type Service struct {
	store      store.Store
	provider   provider.Provider
	classifier *classify.Classifier
	searcher   evidence.Searcher
	publisher  broadcast.Publisher
	guard      *dedupe.Guard
	retry      retry.Policy
	sched      config.SchedulerConfig
	logger     *DebugLogger
}

// New creates a Service from required configuration and options.
func New(req RequiredConfig, opts ...Option) (*Service, error) {
	if req.Store == nil {
		return nil, fmt.Errorf("scenario: store is required")
	}
	if req.Provider == nil {
		return nil, fmt.Errorf("scenario: provider is required")
	}

	o := &serviceOptions{
		searcher:  evidence.NopSearcher{},
		publisher: broadcast.Nop,
		scheduler: config.SchedulerConfig{GroupSize: 1, MaxConcurrent: 3, Coherent: true},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.guard == nil {
		o.guard = dedupe.NewGuard(30 * time.Second)
	}
	if o.logger == nil {
		o.logger = NopLogger()
	}
	if o.scheduler.GroupSize <= 0 {
		o.scheduler.GroupSize = 1
	}
	if o.scheduler.MaxConcurrent <= 0 {
		o.scheduler.MaxConcurrent = 3
	}
	setPackageLogger(o.logger)

	return &Service{
		store:      req.Store,
		provider:   req.Provider,
		classifier: o.classifier,
		searcher:   o.searcher,
		publisher:  o.publisher,
		guard:      o.guard,
		retry:      o.retry,
		sched:      o.scheduler,
		logger:     o.logger,
	}, nil
}

// Generate produces one turn for each requested agent, in emission
// order. Turns are broadcast to the publisher as they complete and
// persisted to the store; the returned slice is the full transcript.
// Every requested agent is represented: agents whose generation failed
// outright get a repaired or placeholder turn marked Fallback.
func (s *Service) Generate(ctx context.Context, question string, agentIDs []string, sessionID string) ([]models.Turn, error) {
	if question == "" {
		return nil, fmt.Errorf("scenario: empty question")
	}
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("scenario: no agents requested")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	start := time.Now()

	roster, err := s.loadRoster(agentIDs)
	if err != nil {
		return nil, err
	}
	edges, err := s.store.Relationships(agentIDs)
	if err != nil {
		return nil, fmt.Errorf("scenario: load relationships: %w", err)
	}

	level := classify.DefaultLevel
	category := ""
	if s.classifier != nil {
		cls := s.classifier.Classify(ctx, question)
		level = cls.Level
		category = cls.Category
		debugLog("[scenario] classified question as %s (%s)", cls.Level, cls.Category)
	}

	snippets := s.gatherEvidence(ctx, roster, question)
	totalSnippets := 0
	for _, ss := range snippets {
		totalSnippets += len(ss)
	}

	budget, err := compose.TokenBudget(level, len(roster), totalSnippets)
	if err != nil {
		return nil, err
	}

	r := &run{
		svc:       s,
		sessionID: sessionID,
		runID:     uuid.NewString(),
		question:  question,
		roster:    roster,
		level:     level,
		perAgent:  budget / len(roster),
		snippets:  snippets,
		composer:  &compose.Composer{Edges: edges},
		emitted:   make(map[string]bool, len(roster)),
	}

	log.Printf("[scenario] run %s: %d agents, level=%s, budget=%d tokens", r.runID, len(roster), level, budget)
	s.guard.Begin(sessionID, r.runID)
	defer s.guard.Complete(sessionID)

	if err := s.runGroups(ctx, r); err != nil {
		return nil, err
	}
	if err := s.repairMissing(ctx, r); err != nil {
		return nil, err
	}
	if gap := r.missing(); len(gap) > 0 {
		return nil, fmt.Errorf("scenario: %d requested agents have no turn after repair", len(gap))
	}

	r.mu.Lock()
	turns := make([]models.Turn, len(r.turns))
	copy(turns, r.turns)
	r.mu.Unlock()
	sort.Slice(turns, func(i, j int) bool { return turns[i].Order < turns[j].Order })

	fallbacks := 0
	for _, t := range turns {
		if t.Fallback {
			fallbacks++
		}
	}
	rec := &models.RunRecord{
		ID:            r.runID,
		SessionID:     sessionID,
		Question:      question,
		Level:         level,
		Category:      category,
		AgentCount:    len(roster),
		TokenBudget:   budget,
		FallbackTurns: fallbacks,
		Duration:      time.Since(start),
	}
	if err := s.store.RecordRun(rec); err != nil {
		log.Printf("[scenario] record run %s: %v", r.runID, err)
	}
	return turns, nil
}

// loadRoster resolves profile IDs against the store, preserving
// request order. Unknown IDs fail the whole request up front.
func (s *Service) loadRoster(agentIDs []string) ([]models.AgentProfile, error) {
	seen := make(map[string]bool, len(agentIDs))
	roster := make([]models.AgentProfile, 0, len(agentIDs))
	for _, id := range agentIDs {
		if seen[id] {
			return nil, fmt.Errorf("scenario: agent %s requested twice", id)
		}
		seen[id] = true
		p, err := s.store.AgentProfile(id)
		if err != nil {
			return nil, fmt.Errorf("scenario: agent %s: %w", id, err)
		}
		roster = append(roster, *p)
	}
	return roster, nil
}

// gatherEvidence runs the searcher for each agent. Search failures are
// logged and treated as empty results.
func (s *Service) gatherEvidence(ctx context.Context, roster []models.AgentProfile, question string) map[string][]evidence.Snippet {
	out := make(map[string][]evidence.Snippet, len(roster))
	for _, a := range roster {
		hits, err := s.searcher.Search(ctx, a.ID, question)
		if err != nil {
			log.Printf("[scenario] evidence search failed for %s: %v", a.ID, err)
			continue
		}
		if len(hits) > 0 {
			out[a.ID] = hits
		}
	}
	return out
}

// run holds the mutable state of one Generate call.
type run struct {
	svc       *Service
	sessionID string
	runID     string
	question  string
	roster    []models.AgentProfile
	level     models.Level
	perAgent  int
	snippets  map[string][]evidence.Snippet
	composer  *compose.Composer

	mu      sync.Mutex
	order   int
	said    string
	turns   []models.Turn
	emitted map[string]bool
}

// emit gates a candidate through the dedup guard and, on acceptance,
// assigns its emission order, persists it, broadcasts it, and extends
// the already-said context. Returns false for duplicates.
func (r *run) emit(cand parse.Candidate, fallback bool) bool {
	idx := r.rosterIndex(cand.Agent.ID)
	key := models.DedupKey(r.sessionID, r.runID, cand.Agent.ID, idx)
	if !r.svc.guard.Mark(r.sessionID, key) {
		runLog(r.runID, "[scenario] duplicate turn rejected: %s", key)
		return false
	}

	r.mu.Lock()
	r.order++
	turn := models.Turn{
		SessionID: r.sessionID,
		AgentID:   cand.Agent.ID,
		AgentName: cand.Agent.Name,
		Content:   cand.Message,
		Reaction:  cand.Reaction,
		Order:     r.order,
		DedupKey:  key,
		Fallback:  fallback,
	}
	r.turns = append(r.turns, turn)
	r.emitted[cand.Agent.ID] = true
	r.said = compose.AppendSaid(r.said, turn)
	r.mu.Unlock()

	if err := r.svc.store.PersistTurn(&turn); err != nil {
		// The transcript still carries the turn; only durability suffered.
		log.Printf("[scenario] persist turn %s: %v", key, err)
	}
	r.svc.publisher.Publish(turn)
	return true
}

// alreadySaid snapshots the shared context for a new group's prompt.
func (r *run) alreadySaid() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.said
}

// missing returns the requested agents with no emitted turn, in
// request order.
func (r *run) missing() []models.AgentProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AgentProfile
	for _, a := range r.roster {
		if !r.emitted[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (r *run) rosterIndex(agentID string) int {
	for i, a := range r.roster {
		if a.ID == agentID {
			return i
		}
	}
	return -1
}

// groupSnippets collects the evidence hits for a group's agents.
func (r *run) groupSnippets(group []models.AgentProfile) []evidence.Snippet {
	var out []evidence.Snippet
	for _, a := range group {
		out = append(out, r.snippets[a.ID]...)
	}
	return out
}
