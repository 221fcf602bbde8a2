package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "troupe.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// bothStores runs a subtest against the SQLite and in-memory backends.
func bothStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openTestDB(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		p := &models.AgentProfile{
			ID:              "vale",
			Name:            "Captain Vale",
			Description:     "ship captain",
			SpeechStyle:     "clipped",
			Personality:     "stern",
			KnowledgeDomain: "navigation",
			CanonLocked:     true,
		}
		if err := s.SaveAgentProfile(p); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := s.AgentProfile("vale")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if *got != *p {
			t.Fatalf("got %+v, want %+v", got, p)
		}

		// Upsert overwrites.
		p.Description = "retired captain"
		if err := s.SaveAgentProfile(p); err != nil {
			t.Fatalf("resave: %v", err)
		}
		got, err = s.AgentProfile("vale")
		if err != nil {
			t.Fatalf("reget: %v", err)
		}
		if got.Description != "retired captain" {
			t.Fatalf("description = %q", got.Description)
		}

		if _, err := s.AgentProfile("nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("missing profile err = %v", err)
		}
	})
}

func TestSetCanonLocked(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		if err := s.SetCanonLocked("nobody", true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
		s.SaveAgentProfile(&models.AgentProfile{ID: "m", Name: "Mirren"})
		if err := s.SetCanonLocked("m", true); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, _ := s.AgentProfile("m")
		if !got.CanonLocked {
			t.Fatal("canon lock not set")
		}
	})
}

func TestRelationshipsFilteredToRequestedAgents(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		for _, id := range []string{"a", "b", "c"} {
			s.SaveAgentProfile(&models.AgentProfile{ID: id, Name: id})
		}
		edges := []models.RelationshipEdge{
			{From: "a", To: "b", Relation: "rivals", Tone: "sharp"},
			{From: "b", To: "c", Relation: "mentor", Tone: "warm"},
		}
		for _, e := range edges {
			if err := s.SaveRelationship(e); err != nil {
				t.Fatalf("save edge: %v", err)
			}
		}

		got, err := s.Relationships([]string{"a", "b"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].Relation != "rivals" {
			t.Fatalf("edges = %+v", got)
		}

		got, err = s.Relationships(nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("empty id list: %+v, %v", got, err)
		}
	})
}

func TestPersistTurnDedupKeyUnique(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		turn := &models.Turn{
			SessionID: "sess",
			AgentID:   "a",
			AgentName: "A",
			Content:   "hello",
			Reaction:  models.ReactionSupportive,
			Order:     0,
			DedupKey:  models.DedupKey("sess", "run", "a", 0),
		}
		if err := s.PersistTurn(turn); err != nil {
			t.Fatalf("persist: %v", err)
		}
		// A retried persist with the same key must not add a row.
		if err := s.PersistTurn(turn); err != nil {
			t.Fatalf("re-persist: %v", err)
		}

		turns, err := s.TurnsBySession("sess")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(turns) != 1 {
			t.Fatalf("turns = %d, want 1", len(turns))
		}
		if turns[0].Content != "hello" || turns[0].Reaction != models.ReactionSupportive {
			t.Fatalf("turn = %+v", turns[0])
		}
	})
}

func TestRunRecordRoundTrip(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		rec := &models.RunRecord{
			ID:            "run-1",
			SessionID:     "sess",
			Question:      "why is the sky blue?",
			Level:         models.LevelDeep,
			Category:      "factual",
			AgentCount:    3,
			TokenBudget:   1350,
			FallbackTurns: 1,
			Duration:      1200 * time.Millisecond,
		}
		if err := s.RecordRun(rec); err != nil {
			t.Fatalf("record: %v", err)
		}

		runs, err := s.RunsBySession("sess")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("runs = %d, want 1", len(runs))
		}
		if runs[0] != *rec {
			t.Fatalf("got %+v, want %+v", runs[0], rec)
		}

		other, err := s.RunsBySession("other")
		if err != nil || len(other) != 0 {
			t.Fatalf("other session runs = %+v, %v", other, err)
		}
	})
}

func TestTurnsOrderedByEmission(t *testing.T) {
	bothStores(t, func(t *testing.T, s Store) {
		for _, i := range []int{2, 0, 1} {
			s.PersistTurn(&models.Turn{
				SessionID: "sess",
				AgentID:   "a",
				AgentName: "A",
				Content:   "x",
				Reaction:  models.ReactionComplementary,
				Order:     i,
				DedupKey:  models.DedupKey("sess", "run", "a", i),
			})
		}
		turns, _ := s.TurnsBySession("sess")
		for i, tu := range turns {
			if tu.Order != i {
				t.Fatalf("position %d has order %d", i, tu.Order)
			}
		}
	})
}
