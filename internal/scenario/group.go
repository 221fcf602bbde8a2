package scenario

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/troupehq/troupe/internal/parse"
	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/internal/retry"
	"github.com/troupehq/troupe/pkg/models"
)

// runGroup generates the turns for one group over a single stream.
// The whole stream attempt retries under the service policy, but only
// until the first chunk arrives: from then on the attempt is committed
// to that stream, and a later failure is handed to repair instead of
// replaying the stream and double-speaking the group.
func (s *Service) runGroup(ctx context.Context, r *run, group []models.AgentProfile) error {
	req := provider.Request{
		System:      r.composer.System(group, r.roster),
		Prompt:      r.composer.User(r.question, group, r.groupSnippets(group), r.alreadySaid()),
		MaxTokens:   r.perAgent * len(group),
		Temperature: dialogueTemperature,
	}

	_, err := retry.Do(ctx, "group:"+groupLabel(group), s.retry, func(ctx context.Context) (int, error) {
		return s.streamGroup(ctx, r, group, req)
	})
	return err
}

// streamGroup runs one stream attempt: pull chunks, feed the parser,
// emit candidates as soon as their object completes.
func (s *Service) streamGroup(ctx context.Context, r *run, group []models.AgentProfile, req provider.Request) (int, error) {
	stream, err := s.provider.Stream(ctx, req)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	parser := parse.NewParser(group)
	var buf strings.Builder
	emitted := 0
	chunkSeen := false

	for {
		chunk, err := stream.Next()
		if chunk != "" {
			chunkSeen = true
			buf.WriteString(chunk)
			for _, cand := range parser.Feed(buf.String()) {
				if r.emit(cand, false) {
					emitted++
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// The commit point is the first observed chunk, not the
			// first complete turn: replaying a stream that already
			// produced text risks emitting partial output twice.
			if chunkSeen {
				return emitted, retry.Committed(err)
			}
			return 0, err
		}
	}

	runLog(r.runID, "[group] %s: %d/%d turns emitted, %d dropped, first chunk after %s",
		groupLabel(group), emitted, len(group), len(parser.Drops()), stream.FirstChunkLatency())
	return emitted, nil
}

func groupLabel(group []models.AgentProfile) string {
	names := make([]string, len(group))
	for i, a := range group {
		names[i] = a.ID
	}
	return strings.Join(names, "+")
}
