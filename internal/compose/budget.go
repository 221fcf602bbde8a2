// Package compose computes token budgets and assembles prompts for
// multi-character generation calls.
package compose

import (
	"fmt"

	"github.com/troupehq/troupe/pkg/models"
)

// GlobalCeiling is the hard upper bound on any single call's output
// token budget.
const GlobalCeiling = 8000

// EvidenceTokensPerSnippet is the budget reserved per evidence snippet.
const EvidenceTokensPerSnippet = 80

// EvidenceBufferCap bounds the total evidence buffer.
const EvidenceBufferCap = 400

// singleAgentBase is the per-tier base budget for a solo response.
var singleAgentBase = map[models.Level]int{
	models.LevelSimple: 300,
	models.LevelNormal: 500,
	models.LevelDeep:   800,
	models.LevelExpert: 1200,
}

// minPerAgent is the per-tier quality floor: no agent's share of the
// budget may fall below this.
var minPerAgent = map[models.Level]int{
	models.LevelSimple: 120,
	models.LevelNormal: 180,
	models.LevelDeep:   250,
	models.LevelExpert: 350,
}

// targetPerAgent is the per-tier quality goal for each agent's share.
var targetPerAgent = map[models.Level]int{
	models.LevelSimple: 220,
	models.LevelNormal: 320,
	models.LevelDeep:   450,
	models.LevelExpert: 600,
}

// MinPerAgent returns the quality floor for a tier.
func MinPerAgent(level models.Level) int {
	if v, ok := minPerAgent[level]; ok {
		return v
	}
	return minPerAgent[models.LevelNormal]
}

// TargetPerAgent returns the quality goal for a tier.
func TargetPerAgent(level models.Level) int {
	if v, ok := targetPerAgent[level]; ok {
		return v
	}
	return targetPerAgent[models.LevelNormal]
}

// TokenBudget computes the output token budget for one generation call.
//
// Single-agent calls get the tier base plus a capped evidence buffer.
// Multi-agent calls get agentCount times the tier target, capped at the
// global ceiling; the evidence buffer is added only with whatever room
// remains after the agent allocation, shrinking before any agent text
// would. If even the per-agent floor cannot fit under the ceiling, the
// configuration is unsatisfiable and TokenBudget fails loudly.
func TokenBudget(level models.Level, agentCount, evidenceSnippets int) (int, error) {
	if agentCount < 1 {
		return 0, fmt.Errorf("token budget requires at least one agent, got %d", agentCount)
	}

	evidenceBuffer := evidenceSnippets * EvidenceTokensPerSnippet
	if evidenceBuffer > EvidenceBufferCap {
		evidenceBuffer = EvidenceBufferCap
	}

	if agentCount == 1 {
		base, ok := singleAgentBase[level]
		if !ok {
			base = singleAgentBase[models.LevelNormal]
		}
		budget := base + evidenceBuffer
		if budget > GlobalCeiling {
			budget = GlobalCeiling
		}
		return budget, nil
	}

	floor := agentCount * MinPerAgent(level)
	if floor > GlobalCeiling {
		return 0, fmt.Errorf(
			"token budget cannot satisfy the %s floor: %d agents x %d tokens = %d exceeds ceiling %d",
			level, agentCount, MinPerAgent(level), floor, GlobalCeiling)
	}

	total := agentCount * TargetPerAgent(level)
	if total > GlobalCeiling {
		total = GlobalCeiling
	}

	// Evidence only gets the room left under the ceiling.
	if room := GlobalCeiling - total; evidenceBuffer > room {
		evidenceBuffer = room
	}

	return total + evidenceBuffer, nil
}
