package models

// AgentProfile describes one character agent available for dialogue.
// Profiles are supplied by the caller and are read-only to the
// orchestration core.
type AgentProfile struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`
	// Name is the display name the model speaks as.
	Name string `json:"name"`
	// Description is a short biography used in prompt composition.
	Description string `json:"description"`
	// SpeechStyle describes how the character talks.
	SpeechStyle string `json:"speech_style,omitempty"`
	// Personality describes temperament and quirks.
	Personality string `json:"personality,omitempty"`
	// KnowledgeDomain is the character's area of expertise, if any.
	KnowledgeDomain string `json:"knowledge_domain,omitempty"`
	// CanonLocked indicates the character may not deviate from its
	// source material.
	CanonLocked bool `json:"canon_locked,omitempty"`
}

// RelationshipEdge describes how one character relates to another.
// Edges shape prompt composition and honorific rules only; the core
// never mutates them.
type RelationshipEdge struct {
	// From is the agent ID of the speaker.
	From string `json:"from"`
	// To is the agent ID of the subject.
	To string `json:"to"`
	// Relation names the relationship (friend, rival, mentor, ...).
	Relation string `json:"relation"`
	// Tone is the expected tone when addressing the subject.
	Tone string `json:"tone,omitempty"`
}
