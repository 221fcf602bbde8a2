// Package models defines the shared data types for troupe.
package models

import "fmt"

// ReactionKind categorizes how a turn relates to the conversation so far.
type ReactionKind string

const (
	// ReactionSupportive agrees with or builds on a previous speaker.
	ReactionSupportive ReactionKind = "supportive"
	// ReactionQuestioning challenges or asks for clarification.
	ReactionQuestioning ReactionKind = "questioning"
	// ReactionComplementary adds a new angle to the topic.
	ReactionComplementary ReactionKind = "complementary"
)

// Valid returns true if the reaction kind is a known value.
func (r ReactionKind) Valid() bool {
	switch r {
	case ReactionSupportive, ReactionQuestioning, ReactionComplementary:
		return true
	default:
		return false
	}
}

// Turn is one character's single contribution to a dialogue response.
// Turns are immutable once emitted.
type Turn struct {
	// SessionID identifies the generation request this turn belongs to.
	SessionID string `json:"session_id"`
	// AgentID is the profile ID of the speaking character.
	AgentID string `json:"agent_id"`
	// AgentName is the display name of the speaking character.
	AgentName string `json:"agent_name"`
	// Content is the spoken text.
	Content string `json:"content"`
	// Reaction categorizes the turn relative to earlier speakers.
	Reaction ReactionKind `json:"reaction"`
	// Order is the 1-based emission position within the session.
	Order int `json:"order"`
	// DedupKey is the identity token used for at-most-once emission.
	DedupKey string `json:"dedup_key"`
	// Fallback marks turns synthesized by completeness repair rather
	// than parsed from a model response.
	Fallback bool `json:"fallback,omitempty"`
}

// DedupKey derives the at-most-once identity token for a turn.
// The run ID distinguishes retried generation attempts within one session.
func DedupKey(sessionID, runID, agentID string, turnIndex int) string {
	return fmt.Sprintf("%s:%s:%s:%d", sessionID, runID, agentID, turnIndex)
}
