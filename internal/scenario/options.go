package scenario

import (
	"github.com/troupehq/troupe/internal/broadcast"
	"github.com/troupehq/troupe/internal/classify"
	"github.com/troupehq/troupe/internal/config"
	"github.com/troupehq/troupe/internal/dedupe"
	"github.com/troupehq/troupe/internal/evidence"
	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/internal/retry"
	"github.com/troupehq/troupe/internal/store"
)

// RequiredConfig contains the minimal required configuration for a Service.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Store persists profiles, relationships, and turns.
	Store store.Store
	// Provider issues the model calls.
	Provider provider.Provider
}

// Option configures a Service. Use With* functions to create Options.
type Option func(*serviceOptions)

// serviceOptions holds all optional configuration.
type serviceOptions struct {
	classifier *classify.Classifier
	searcher   evidence.Searcher
	publisher  broadcast.Publisher
	guard      *dedupe.Guard
	retry      retry.Policy
	scheduler  config.SchedulerConfig
	logger     *DebugLogger
}

// WithClassifier sets the complexity classifier. Without one, every
// question is treated as normal complexity.
func WithClassifier(c *classify.Classifier) Option {
	return func(o *serviceOptions) { o.classifier = c }
}

// WithSearcher sets the evidence searcher.
func WithSearcher(s evidence.Searcher) Option {
	return func(o *serviceOptions) { o.searcher = s }
}

// WithPublisher sets the broadcast publisher for live turn delivery.
func WithPublisher(p broadcast.Publisher) Option {
	return func(o *serviceOptions) { o.publisher = p }
}

// WithGuard sets a custom dedup guard (mainly for testing).
func WithGuard(g *dedupe.Guard) Option {
	return func(o *serviceOptions) { o.guard = g }
}

// WithRetryPolicy sets the retry policy for provider calls.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *serviceOptions) { o.retry = p }
}

// WithScheduler sets the scheduling policy.
func WithScheduler(s config.SchedulerConfig) Option {
	return func(o *serviceOptions) { o.scheduler = s }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *serviceOptions) { o.logger = l }
}
