package scenario

import (
	"context"
	"fmt"
	"log"

	"github.com/troupehq/troupe/internal/compose"
	"github.com/troupehq/troupe/internal/parse"
	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/internal/retry"
	"github.com/troupehq/troupe/pkg/models"
)

// repairMissing gives every requested agent without a turn a second,
// single-agent chance, and synthesizes a placeholder if that fails
// too. After repair the transcript covers the full roster.
func (s *Service) repairMissing(ctx context.Context, r *run) error {
	missing := r.missing()
	if len(missing) == 0 {
		return nil
	}
	log.Printf("[repair] %d of %d agents missing a turn, repairing", len(missing), len(r.roster))

	refused := 0
	for _, agent := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		cand, err := s.repairOne(ctx, r, agent)
		if err != nil {
			runLog(r.runID, "[repair] %s: generation failed (%v), using placeholder", agent.ID, err)
			cand = placeholderTurn(agent)
		}
		if !r.emit(cand, true) {
			// A dropped repair turn leaves a requested agent silent;
			// that must fail the run, never pass unnoticed.
			log.Printf("[repair] emission refused for %s, transcript incomplete", agent.ID)
			refused++
		}
	}
	if refused > 0 {
		return fmt.Errorf("scenario: repair could not emit turns for %d agents", refused)
	}
	return nil
}

// repairOne runs a non-streaming single-agent completion and parses
// the first turn belonging to the agent out of it.
func (s *Service) repairOne(ctx context.Context, r *run, agent models.AgentProfile) (parse.Candidate, error) {
	group := []models.AgentProfile{agent}
	req := provider.Request{
		System:      r.composer.System(group, r.roster),
		Prompt:      r.composer.User(r.question, group, r.groupSnippets(group), r.alreadySaid()),
		MaxTokens:   compose.TargetPerAgent(r.level),
		Temperature: dialogueTemperature,
	}

	text, err := retry.Do(ctx, "repair:"+agent.ID, s.retry, func(ctx context.Context) (string, error) {
		return s.provider.Complete(ctx, req)
	})
	if err != nil {
		return parse.Candidate{}, err
	}

	parser := parse.NewParser(group)
	for _, cand := range parser.Feed(text) {
		if cand.Agent.ID == agent.ID {
			return cand, nil
		}
	}
	return parse.Candidate{}, fmt.Errorf("no usable turn in repair response for %s", agent.ID)
}

// placeholderTurn is the deterministic last resort: the character
// stays present in the scene without inventing content.
func placeholderTurn(agent models.AgentProfile) parse.Candidate {
	return parse.Candidate{
		Agent:    agent,
		Message:  fmt.Sprintf("%s listens, but has nothing to add right now.", agent.Name),
		Reaction: models.ReactionSupportive,
	}
}
