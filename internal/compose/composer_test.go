package compose

import (
	"strings"
	"testing"

	"github.com/troupehq/troupe/internal/evidence"
	"github.com/troupehq/troupe/pkg/models"
)

var (
	rin = models.AgentProfile{
		ID: "rin", Name: "Rin", Description: "A stoic swordswoman.",
		SpeechStyle: "terse", Personality: "guarded",
	}
	hana = models.AgentProfile{
		ID: "hana", Name: "Hana", Description: "A cheerful inventor.",
		KnowledgeDomain: "machinery", CanonLocked: true,
	}
)

func TestSystem_CharacterSheets(t *testing.T) {
	c := &Composer{}
	all := []models.AgentProfile{rin, hana}

	got := c.System(all, all)

	for _, want := range []string{"## Rin", "## Hana", "terse", "machinery", "source material"} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(got, `"speaker"`) {
		t.Error("system prompt missing output contract")
	}
}

func TestSystem_RelationshipLines(t *testing.T) {
	c := &Composer{
		Edges: []models.RelationshipEdge{
			{From: "rin", To: "hana", Relation: "rival", Tone: "curt"},
			{From: "rin", To: "absent", Relation: "friend"},
		},
	}
	all := []models.AgentProfile{rin, hana}

	got := c.System([]models.AgentProfile{rin}, all)

	if !strings.Contains(got, "rival") {
		t.Error("expected rival relationship line")
	}
	if !strings.Contains(got, "curt tone") {
		t.Error("expected tone instruction")
	}
	if strings.Contains(got, "absent") {
		t.Error("edges to agents outside the request must be dropped")
	}
}

func TestUser_EvidenceAndContext(t *testing.T) {
	c := &Composer{}

	snippets := []evidence.Snippet{{Text: "The bridge was built in 1921.", Score: 0.9}}
	got := c.User("when was the bridge built?", []models.AgentProfile{rin}, snippets, "Hana: I think it is old.\n")

	if !strings.Contains(got, "built in 1921") {
		t.Error("expected evidence snippet")
	}
	if !strings.Contains(got, "Hana: I think it is old.") {
		t.Error("expected already-said context")
	}
	if !strings.Contains(got, "exactly one turn for each of: Rin") {
		t.Error("expected per-agent instruction")
	}
}

func TestUser_NoEvidenceNoContext(t *testing.T) {
	c := &Composer{}
	got := c.User("hello", []models.AgentProfile{rin, hana}, nil, "")

	if strings.Contains(got, "Background facts") {
		t.Error("no evidence section expected")
	}
	if strings.Contains(got, "Earlier in this conversation") {
		t.Error("no already-said section expected")
	}
	if !strings.Contains(got, "Rin, Hana") {
		t.Error("expected both agent names")
	}
}

func TestAppendSaid(t *testing.T) {
	ctx := AppendSaid("", models.Turn{AgentName: "Rin", Content: "Hm."})
	ctx = AppendSaid(ctx, models.Turn{AgentName: "Hana", Content: "Fascinating!"})

	want := "Rin: Hm.\nHana: Fascinating!\n"
	if ctx != want {
		t.Errorf("got %q, want %q", ctx, want)
	}
}
