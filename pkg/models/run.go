package models

import "time"

// RunRecord summarizes one completed generation run for later
// inspection: what was asked, how it was classified and budgeted, and
// how the run went.
type RunRecord struct {
	// ID is the run's unique identifier.
	ID string `json:"id"`
	// SessionID identifies the session the run belongs to.
	SessionID string `json:"session_id"`
	// Question is the user question that started the run.
	Question string `json:"question"`
	// Level is the classified complexity tier.
	Level Level `json:"level"`
	// Category is the classifier's free-form topic label.
	Category string `json:"category"`
	// AgentCount is the number of requested agents.
	AgentCount int `json:"agent_count"`
	// TokenBudget is the total output budget granted to the run.
	TokenBudget int `json:"token_budget"`
	// FallbackTurns counts turns synthesized by repair.
	FallbackTurns int `json:"fallback_turns"`
	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}
