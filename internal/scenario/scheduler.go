package scenario

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/troupehq/troupe/pkg/models"
)

// partition splits the roster into generation groups of at most size
// agents, preserving request order.
func partition(roster []models.AgentProfile, size int) [][]models.AgentProfile {
	if size <= 0 {
		size = 1
	}
	var groups [][]models.AgentProfile
	for start := 0; start < len(roster); start += size {
		end := start + size
		if end > len(roster) {
			end = len(roster)
		}
		groups = append(groups, roster[start:end])
	}
	return groups
}

// runGroups schedules the run's groups. In coherent mode groups run
// one after another so each group's prompt carries everything earlier
// groups said; otherwise groups run concurrently, bounded by
// MaxConcurrent, and trade coherence for latency.
func (s *Service) runGroups(ctx context.Context, r *run) error {
	groups := partition(r.roster, s.sched.GroupSize)
	runLog(r.runID, "[scheduler] %d groups of up to %d agents, coherent=%v", len(groups), s.sched.GroupSize, s.sched.Coherent)

	if s.sched.Coherent {
		for i, group := range groups {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.runGroup(ctx, r, group); err != nil {
				runLog(r.runID, "[scheduler] group %d failed: %v", i, err)
				// The agents of a failed group are picked up by repair.
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sched.MaxConcurrent)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := s.runGroup(gctx, r, group); err != nil {
				runLog(r.runID, "[scheduler] group %d failed: %v", i, err)
			}
			// Group failures never cancel sibling groups; repair
			// covers the gap afterwards.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
