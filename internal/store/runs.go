package store

import (
	"fmt"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

// RecordRun writes one completed run's summary.
func (db *DB) RecordRun(r *models.RunRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, session_id, question, level, category, agent_count, token_budget, fallback_turns, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.SessionID, r.Question, string(r.Level), r.Category, r.AgentCount, r.TokenBudget, r.FallbackTurns, r.Duration.Milliseconds(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// RunsBySession returns a session's run summaries, oldest first.
func (db *DB) RunsBySession(sessionID string) ([]models.RunRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, session_id, question, level, category, agent_count, token_budget, fallback_turns, duration_ms
		FROM runs WHERE session_id = ? ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var runs []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		var level string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Question, &level, &r.Category, &r.AgentCount, &r.TokenBudget, &r.FallbackTurns, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Level = models.Level(level)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
