package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/troupehq/troupe/pkg/models"
)

// SaveAgentProfile inserts or updates a character profile.
func (db *DB) SaveAgentProfile(p *models.AgentProfile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO agent_profiles (id, name, description, speech_style, personality, knowledge_domain, canon_locked)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			speech_style = excluded.speech_style,
			personality = excluded.personality,
			knowledge_domain = excluded.knowledge_domain,
			canon_locked = excluded.canon_locked
	`, p.ID, p.Name, p.Description, p.SpeechStyle, p.Personality, p.KnowledgeDomain, boolToInt(p.CanonLocked))
	if err != nil {
		return fmt.Errorf("save agent profile %s: %w", p.ID, err)
	}
	return nil
}

// AgentProfile fetches one profile by id.
func (db *DB) AgentProfile(id string) (*models.AgentProfile, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, name, description, speech_style, personality, knowledge_domain, canon_locked
		FROM agent_profiles WHERE id = ?
	`, id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent profile %s: %w", id, err)
	}
	return p, nil
}

// ListAgentProfiles returns every stored profile ordered by name.
func (db *DB) ListAgentProfiles() ([]models.AgentProfile, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, name, description, speech_style, personality, knowledge_domain, canon_locked
		FROM agent_profiles ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list agent profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.AgentProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// SetCanonLocked flips the canon-lock flag on a profile.
func (db *DB) SetCanonLocked(id string, locked bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(`UPDATE agent_profiles SET canon_locked = ? WHERE id = ?`, boolToInt(locked), id)
	if err != nil {
		return fmt.Errorf("set canon_locked for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRelationship inserts or updates one directed edge.
func (db *DB) SaveRelationship(e models.RelationshipEdge) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO relationships (from_id, to_id, relation, tone)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id) DO UPDATE SET
			relation = excluded.relation,
			tone = excluded.tone
	`, e.From, e.To, e.Relation, e.Tone)
	if err != nil {
		return fmt.Errorf("save relationship %s->%s: %w", e.From, e.To, err)
	}
	return nil
}

// Relationships returns the edges whose both endpoints are in ids.
func (db *DB) Relationships(ids []string) ([]models.RelationshipEdge, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT from_id, to_id, relation, tone
		FROM relationships
		WHERE from_id IN (%s) AND to_id IN (%s)
	`, placeholders, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var edges []models.RelationshipEdge
	for rows.Next() {
		var e models.RelationshipEdge
		if err := rows.Scan(&e.From, &e.To, &e.Relation, &e.Tone); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(r rowScanner) (*models.AgentProfile, error) {
	var p models.AgentProfile
	var locked int
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &p.SpeechStyle, &p.Personality, &p.KnowledgeDomain, &locked); err != nil {
		return nil, err
	}
	p.CanonLocked = locked != 0
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
