package compose

import (
	"fmt"
	"strings"

	"github.com/troupehq/troupe/internal/evidence"
	"github.com/troupehq/troupe/pkg/models"
)

// Composer assembles system and user prompts for one generation group.
// Relationship edges shape how characters address each other; the
// already-said context lets later groups react to earlier ones.
type Composer struct {
	// Edges are the relationship edges among all requested agents.
	Edges []models.RelationshipEdge
}

// System builds the system prompt for a group of agents. Each agent
// gets a character sheet; relationship lines cover only pairs where
// both ends are in this request.
func (c *Composer) System(group []models.AgentProfile, all []models.AgentProfile) string {
	var sb strings.Builder

	sb.WriteString("You are writing dialogue for the following characters. ")
	sb.WriteString("Stay in character at all times.\n")

	for _, agent := range group {
		sb.WriteString("\n## ")
		sb.WriteString(agent.Name)
		sb.WriteString("\n")
		if agent.Description != "" {
			sb.WriteString(agent.Description)
			sb.WriteString("\n")
		}
		if agent.Personality != "" {
			sb.WriteString("Personality: " + agent.Personality + "\n")
		}
		if agent.SpeechStyle != "" {
			sb.WriteString("Speech style: " + agent.SpeechStyle + "\n")
		}
		if agent.KnowledgeDomain != "" {
			sb.WriteString("Expertise: " + agent.KnowledgeDomain + "\n")
		}
		if agent.CanonLocked {
			sb.WriteString("This character must not deviate from its source material.\n")
		}

		if lines := c.relationshipLines(agent, all); len(lines) > 0 {
			sb.WriteString("Relationships:\n")
			for _, line := range lines {
				sb.WriteString("- " + line + "\n")
			}
		}
	}

	sb.WriteString("\n" + outputContract)
	return sb.String()
}

// User builds the user prompt: the question, any grounding evidence,
// and what other characters already said this turn.
func (c *Composer) User(question string, group []models.AgentProfile, snippets []evidence.Snippet, alreadySaid string) string {
	var sb strings.Builder

	if len(snippets) > 0 {
		sb.WriteString("Background facts you may draw on:\n")
		for _, s := range snippets {
			sb.WriteString("- " + strings.TrimSpace(s.Text) + "\n")
		}
		sb.WriteString("\n")
	}

	if alreadySaid != "" {
		sb.WriteString("Earlier in this conversation turn, other characters said:\n")
		sb.WriteString(alreadySaid)
		sb.WriteString("\nReact naturally to what was already said.\n\n")
	}

	sb.WriteString("User message: " + question + "\n\n")

	names := make([]string, len(group))
	for i, agent := range group {
		names[i] = agent.Name
	}
	sb.WriteString(fmt.Sprintf("Write exactly one turn for each of: %s.", strings.Join(names, ", ")))

	return sb.String()
}

// AppendSaid extends the already-said context with a completed turn.
func AppendSaid(context string, turn models.Turn) string {
	return context + fmt.Sprintf("%s: %s\n", turn.AgentName, turn.Content)
}

// relationshipLines renders the edges from one agent to any other
// requested agent.
func (c *Composer) relationshipLines(agent models.AgentProfile, all []models.AgentProfile) []string {
	byID := make(map[string]models.AgentProfile, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}

	var lines []string
	for _, edge := range c.Edges {
		if edge.From != agent.ID {
			continue
		}
		other, ok := byID[edge.To]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s is %s's %s", other.Name, agent.Name, edge.Relation)
		if edge.Tone != "" {
			line += fmt.Sprintf("; address them in a %s tone", edge.Tone)
		}
		lines = append(lines, line)
	}
	return lines
}

// outputContract fixes the structural shape of the model's response.
// The parser depends on these field names.
const outputContract = `Respond with a JSON array only. Each element is one character's turn:
[{"speaker": "<character name>", "message": "<what they say>", "reaction": "supportive|questioning|complementary"}]
Emit the turns in speaking order. Do not add text outside the JSON array.`
