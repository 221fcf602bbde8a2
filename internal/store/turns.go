package store

import (
	"fmt"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

// PersistTurn writes one emitted turn. The dedup key is UNIQUE, so a
// retried write of the same turn is a no-op rather than a duplicate row.
func (db *DB) PersistTurn(t *models.Turn) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO turns (session_id, agent_id, agent_name, content, reaction, turn_order, dedup_key, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO NOTHING
	`, t.SessionID, t.AgentID, t.AgentName, t.Content, string(t.Reaction), t.Order, t.DedupKey, boolToInt(t.Fallback), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("persist turn %s: %w", t.DedupKey, err)
	}
	return nil
}

// TurnsBySession returns a session's turns in emission order.
func (db *DB) TurnsBySession(sessionID string) ([]models.Turn, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT session_id, agent_id, agent_name, content, reaction, turn_order, dedup_key, fallback
		FROM turns WHERE session_id = ? ORDER BY turn_order
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		var reaction string
		var fallback int
		if err := rows.Scan(&t.SessionID, &t.AgentID, &t.AgentName, &t.Content, &reaction, &t.Order, &t.DedupKey, &fallback); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Reaction = models.ReactionKind(reaction)
		t.Fallback = fallback != 0
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
