package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/troupehq/troupe/internal/evidence"
	"github.com/troupehq/troupe/internal/store"
	"github.com/troupehq/troupe/pkg/models"
)

// rosterFile is the YAML document accepted by `troupe agents import`
// and the ask command's --roster flag.
type rosterFile struct {
	Agents []struct {
		ID              string `yaml:"id"`
		Name            string `yaml:"name"`
		Description     string `yaml:"description"`
		SpeechStyle     string `yaml:"speech_style"`
		Personality     string `yaml:"personality"`
		KnowledgeDomain string `yaml:"knowledge_domain"`
		CanonLocked     bool   `yaml:"canon_locked"`
	} `yaml:"agents"`
	Relationships []struct {
		From     string `yaml:"from"`
		To       string `yaml:"to"`
		Relation string `yaml:"relation"`
		Tone     string `yaml:"tone"`
	} `yaml:"relationships"`
	Evidence []struct {
		Agent string  `yaml:"agent"`
		Text  string  `yaml:"text"`
		Score float64 `yaml:"score"`
	} `yaml:"evidence"`
}

func loadRosterFile(path string) (*rosterFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse roster file: %w", err)
	}
	for i, a := range rf.Agents {
		if a.ID == "" || a.Name == "" {
			return nil, fmt.Errorf("agent %d: id and name are required", i)
		}
	}
	return &rf, nil
}

// importRoster persists the file's profiles and relationships.
// Canon-locked profiles already in the store are never overwritten.
func importRoster(st store.Store, rf *rosterFile) (int, int, error) {
	saved := 0
	for _, a := range rf.Agents {
		existing, err := st.AgentProfile(a.ID)
		if err == nil && existing.CanonLocked {
			fmt.Fprintf(os.Stderr, "skipping %s: canon locked\n", a.ID)
			continue
		}
		p := models.AgentProfile{
			ID:              a.ID,
			Name:            a.Name,
			Description:     a.Description,
			SpeechStyle:     a.SpeechStyle,
			Personality:     a.Personality,
			KnowledgeDomain: a.KnowledgeDomain,
			CanonLocked:     a.CanonLocked,
		}
		if err := st.SaveAgentProfile(&p); err != nil {
			return saved, 0, err
		}
		saved++
	}

	edges := 0
	for _, e := range rf.Relationships {
		err := st.SaveRelationship(models.RelationshipEdge{
			From:     e.From,
			To:       e.To,
			Relation: e.Relation,
			Tone:     e.Tone,
		})
		if err != nil {
			return saved, edges, err
		}
		edges++
	}
	return saved, edges, nil
}

// evidenceSearcher builds a static searcher from the file's evidence
// entries. Returns nil when the file carries none.
func evidenceSearcher(rf *rosterFile) *evidence.StaticSearcher {
	if len(rf.Evidence) == 0 {
		return nil
	}
	s := evidence.NewStaticSearcher(5)
	for _, e := range rf.Evidence {
		s.Add(e.Agent, evidence.Snippet{Text: e.Text, Score: e.Score})
	}
	return s
}
