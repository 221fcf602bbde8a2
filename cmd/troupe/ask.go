package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/troupehq/troupe/internal/broadcast"
	"github.com/troupehq/troupe/internal/classify"
	"github.com/troupehq/troupe/internal/config"
	"github.com/troupehq/troupe/internal/dedupe"
	"github.com/troupehq/troupe/internal/retry"
	"github.com/troupehq/troupe/internal/scenario"
	"github.com/troupehq/troupe/internal/store"
	"github.com/troupehq/troupe/pkg/models"
)

var (
	askAgents   []string
	askSession  string
	askRoster   string
	askParallel bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the troupe a question",
	Long: `Ask generates one in-character turn from each requested agent.
Turns print as they complete; the final transcript is also persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(args[0])
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askAgents, "agents", "a", nil, "Agent IDs to include, in speaking priority order")
	askCmd.Flags().StringVar(&askSession, "session", "", "Session ID (defaults to a fresh one)")
	askCmd.Flags().StringVar(&askRoster, "roster", "", "Roster YAML to import before generating")
	askCmd.Flags().BoolVar(&askParallel, "parallel", false, "Run agents concurrently instead of coherently")
	askCmd.MarkFlagRequired("agents")
}

func runAsk(question string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if askParallel {
		cfg.Scheduler.Coherent = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = store.DefaultPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return err
	}

	opts := []scenario.Option{
		scenario.WithScheduler(cfg.Scheduler),
		scenario.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		}),
		scenario.WithGuard(dedupe.NewGuard(cfg.Dedupe.GracePeriod)),
	}

	if askRoster != "" {
		rf, err := loadRosterFile(askRoster)
		if err != nil {
			return err
		}
		if _, _, err := importRoster(st, rf); err != nil {
			return err
		}
		if s := evidenceSearcher(rf); s != nil {
			opts = append(opts, scenario.WithSearcher(s))
		}
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	clsProv, err := buildClassifierProvider(cfg)
	if err != nil {
		return err
	}
	opts = append(opts, scenario.WithClassifier(classify.New(classify.Config{
		Completer:     clsProv,
		CacheTTL:      cfg.Classifier.CacheTTL,
		CacheCapacity: cfg.Classifier.CacheCapacity,
		Timeout:       cfg.Provider.Timeout,
	})))

	if debugLogPath != "" {
		logger, err := scenario.NewDebugLogger(debugLogPath)
		if err != nil {
			return err
		}
		defer logger.Close()
		opts = append(opts, scenario.WithLogger(logger))
	}

	emitter := broadcast.NewEmitter(32)
	opts = append(opts, scenario.WithPublisher(emitter))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printTurns(emitter.Turns())
	}()

	svc, err := scenario.New(scenario.RequiredConfig{Store: st, Provider: prov}, opts...)
	if err != nil {
		return err
	}

	turns, err := svc.Generate(ctx, question, askAgents, askSession)
	emitter.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	fallbacks := 0
	for _, t := range turns {
		if t.Fallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d turns were repaired\n", fallbacks, len(turns))
	}
	return nil
}

// speaker colors cycle per distinct agent, in order of first speech.
var speakerPalette = []*color.Color{
	color.New(color.FgCyan, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgMagenta, color.Bold),
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgBlue, color.Bold),
	color.New(color.FgRed, color.Bold),
}

func printTurns(turns <-chan models.Turn) {
	assigned := make(map[string]*color.Color)
	dim := color.New(color.Faint)
	for t := range turns {
		c, ok := assigned[t.AgentID]
		if !ok {
			c = speakerPalette[len(assigned)%len(speakerPalette)]
			assigned[t.AgentID] = c
		}
		label := c.Sprintf("%s", t.AgentName)
		note := dim.Sprintf("(%s)", t.Reaction)
		if t.Fallback {
			note = dim.Sprintf("(%s, repaired)", t.Reaction)
		}
		fmt.Printf("%s %s\n%s\n\n", label, note, strings.TrimSpace(t.Content))
	}
}
