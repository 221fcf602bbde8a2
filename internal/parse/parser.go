package parse

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/troupehq/troupe/pkg/models"
)

// DropReason explains why a scanned object did not become a candidate turn.
type DropReason int

const (
	DropBadJSON DropReason = iota
	DropMissingFields
	DropUnknownSpeaker
	DropAmbiguousSpeaker
)

func (r DropReason) String() string {
	switch r {
	case DropBadJSON:
		return "bad_json"
	case DropMissingFields:
		return "missing_fields"
	case DropUnknownSpeaker:
		return "unknown_speaker"
	case DropAmbiguousSpeaker:
		return "ambiguous_speaker"
	default:
		return "unknown"
	}
}

// Drop records one rejected object together with its raw text, so a
// debug log can show exactly what the model produced.
type Drop struct {
	Reason DropReason
	Raw    string
}

// Candidate is a structurally valid turn whose speaker resolved to a
// known agent. It still has to clear the dedup guard before it becomes
// an emitted turn.
type Candidate struct {
	Agent    models.AgentProfile
	Message  string
	Reaction models.ReactionKind
}

type rawTurn struct {
	Speaker  string `json:"speaker"`
	Message  string `json:"message"`
	Reaction string `json:"reaction"`
}

// Parser extracts candidate turns from a buffer that grows as a stream
// arrives. Feed may be called with the same buffer repeatedly; a
// watermark over already-parsed objects makes repeated calls cheap and
// keeps every object from being reported more than once.
type Parser struct {
	agents []models.AgentProfile
	parsed int
	drops  []Drop
}

// NewParser returns a parser that resolves speakers against the given
// agent roster.
func NewParser(agents []models.AgentProfile) *Parser {
	return &Parser{agents: agents}
}

// Feed scans buf for complete objects beyond the watermark and returns
// the candidates found in buffer order. Objects that fail to parse, lack
// a mandatory field, or name a speaker that cannot be resolved are
// dropped and recorded, never returned as errors: a single malformed
// object must not sink the rest of the stream.
func (p *Parser) Feed(buf string) []Candidate {
	spans := ScanObjects(buf)
	if len(spans) <= p.parsed {
		return nil
	}

	var out []Candidate
	for _, sp := range spans[p.parsed:] {
		raw := buf[sp.Start:sp.End]
		if cand, ok := p.parseObject(raw); ok {
			out = append(out, cand)
		}
	}
	p.parsed = len(spans)
	return out
}

// Drops returns every object rejected so far, in encounter order.
func (p *Parser) Drops() []Drop {
	return p.drops
}

func (p *Parser) parseObject(raw string) (Candidate, bool) {
	var rt rawTurn
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil || json.Unmarshal([]byte(repaired), &rt) != nil {
			p.drop(DropBadJSON, raw)
			return Candidate{}, false
		}
	}

	if strings.TrimSpace(rt.Speaker) == "" || strings.TrimSpace(rt.Message) == "" {
		p.drop(DropMissingFields, raw)
		return Candidate{}, false
	}

	agent, reason, ok := p.resolveSpeaker(rt.Speaker)
	if !ok {
		p.drop(reason, raw)
		return Candidate{}, false
	}

	return Candidate{
		Agent:    agent,
		Message:  strings.TrimSpace(rt.Message),
		Reaction: parseReaction(rt.Reaction),
	}, true
}

// resolveSpeaker matches a model-emitted speaker name against the
// roster. Exact case-insensitive match wins; otherwise containment in
// either direction is accepted, but only when it is unambiguous.
func (p *Parser) resolveSpeaker(speaker string) (models.AgentProfile, DropReason, bool) {
	name := strings.ToLower(strings.TrimSpace(speaker))

	for _, a := range p.agents {
		if strings.ToLower(a.Name) == name {
			return a, 0, true
		}
	}

	var matches []models.AgentProfile
	for _, a := range p.agents {
		an := strings.ToLower(a.Name)
		if strings.Contains(an, name) || strings.Contains(name, an) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], 0, true
	case 0:
		return models.AgentProfile{}, DropUnknownSpeaker, false
	default:
		return models.AgentProfile{}, DropAmbiguousSpeaker, false
	}
}

func (p *Parser) drop(reason DropReason, raw string) {
	p.drops = append(p.drops, Drop{Reason: reason, Raw: raw})
	log.Printf("[parser] dropped object (%s): %.120s", reason, raw)
}

func parseReaction(s string) models.ReactionKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(models.ReactionSupportive):
		return models.ReactionSupportive
	case string(models.ReactionQuestioning):
		return models.ReactionQuestioning
	case string(models.ReactionComplementary):
		return models.ReactionComplementary
	default:
		return models.ReactionComplementary
	}
}
