// Package store provides SQLite-backed persistence for Troupe:
// character profiles, relationship edges, and generated turns.
package store

import (
	"errors"
	"io"

	"github.com/troupehq/troupe/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ProfileStore handles character-profile persistence.
type ProfileStore interface {
	SaveAgentProfile(p *models.AgentProfile) error
	AgentProfile(id string) (*models.AgentProfile, error)
	ListAgentProfiles() ([]models.AgentProfile, error)
	SetCanonLocked(id string, locked bool) error
}

// RelationshipStore handles relationship-edge persistence.
type RelationshipStore interface {
	SaveRelationship(e models.RelationshipEdge) error
	// Relationships returns the edges whose both endpoints are in ids.
	Relationships(ids []string) ([]models.RelationshipEdge, error)
}

// TurnStore handles dialogue-turn persistence.
type TurnStore interface {
	PersistTurn(t *models.Turn) error
	TurnsBySession(sessionID string) ([]models.Turn, error)
}

// RunStore handles run-summary persistence.
type RunStore interface {
	RecordRun(r *models.RunRecord) error
	RunsBySession(sessionID string) ([]models.RunRecord, error)
}

// Migrator applies pending schema migrations.
type Migrator interface {
	Migrate() error
}

// Store is the persistence surface the generation service works
// against. It composes focused sub-interfaces so callers can depend on
// only what they use.
type Store interface {
	io.Closer
	Migrator
	ProfileStore
	RelationshipStore
	TurnStore
	RunStore
}

// Compile-time verification that both backends implement the interfaces.
var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)
