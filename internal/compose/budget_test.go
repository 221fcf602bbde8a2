package compose

import (
	"testing"

	"github.com/troupehq/troupe/pkg/models"
)

var allLevels = []models.Level{
	models.LevelSimple, models.LevelNormal, models.LevelDeep, models.LevelExpert,
}

func TestTokenBudget_SingleAgent(t *testing.T) {
	tests := []struct {
		name     string
		level    models.Level
		evidence int
		want     int
	}{
		{"simple no evidence", models.LevelSimple, 0, 300},
		{"normal no evidence", models.LevelNormal, 0, 500},
		{"deep no evidence", models.LevelDeep, 0, 800},
		{"expert no evidence", models.LevelExpert, 0, 1200},
		{"normal with evidence", models.LevelNormal, 2, 500 + 160},
		{"evidence buffer capped", models.LevelNormal, 50, 500 + EvidenceBufferCap},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TokenBudget(tc.level, 1, tc.evidence)
			if err != nil {
				t.Fatalf("TokenBudget: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTokenBudget_MultiAgentTarget(t *testing.T) {
	got, err := TokenBudget(models.LevelNormal, 3, 0)
	if err != nil {
		t.Fatalf("TokenBudget: %v", err)
	}
	want := 3 * TargetPerAgent(models.LevelNormal)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestTokenBudget_FloorNeverViolated(t *testing.T) {
	// For every level and agent count the budget either fails loudly
	// or gives each agent at least the floor.
	for _, level := range allLevels {
		for agents := 2; agents <= 40; agents++ {
			budget, err := TokenBudget(level, agents, 0)
			if err != nil {
				if agents*MinPerAgent(level) <= GlobalCeiling {
					t.Errorf("%s/%d agents: unexpected error: %v", level, agents, err)
				}
				continue
			}
			perAgent := budget / agents
			if perAgent < MinPerAgent(level) {
				t.Errorf("%s/%d agents: per-agent %d below floor %d",
					level, agents, perAgent, MinPerAgent(level))
			}
		}
	}
}

func TestTokenBudget_FloorOverflowFailsLoudly(t *testing.T) {
	// 24 expert agents x 350 floor = 8400 > 8000 ceiling.
	_, err := TokenBudget(models.LevelExpert, 24, 0)
	if err == nil {
		t.Fatal("expected hard error when the floor exceeds the ceiling")
	}
}

func TestTokenBudget_EvidenceShrinksBeforeAgents(t *testing.T) {
	// 13 expert agents x 600 target = 7800; only 200 of room remains,
	// so a 400-token evidence buffer must shrink to fit.
	budget, err := TokenBudget(models.LevelExpert, 13, 10)
	if err != nil {
		t.Fatalf("TokenBudget: %v", err)
	}
	if budget > GlobalCeiling {
		t.Errorf("budget %d exceeds ceiling", budget)
	}
	if budget < 13*TargetPerAgent(models.LevelExpert) {
		t.Errorf("agent allocation was cut to fit evidence: got %d", budget)
	}
}

func TestTokenBudget_CeilingRespected(t *testing.T) {
	for _, level := range allLevels {
		for agents := 1; agents <= 20; agents++ {
			budget, err := TokenBudget(level, agents, 20)
			if err != nil {
				continue
			}
			if budget > GlobalCeiling {
				t.Errorf("%s/%d agents: budget %d exceeds ceiling %d",
					level, agents, budget, GlobalCeiling)
			}
		}
	}
}

func TestTokenBudget_ZeroAgents(t *testing.T) {
	if _, err := TokenBudget(models.LevelNormal, 0, 0); err == nil {
		t.Error("expected error for zero agents")
	}
}
