// Package classify assigns a complexity tier to incoming questions so
// downstream components can budget tokens accordingly.
package classify

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/pkg/models"
)

// classifyTemperature is fixed low so repeated classifications of the
// same question agree.
const classifyTemperature = 0.1

// classifyMaxTokens bounds the classification response.
const classifyMaxTokens = 256

// DefaultLevel is returned whenever classification cannot produce a
// valid tier. Classification failure must never block generation.
const DefaultLevel = models.LevelNormal

// mentionRe strips @mentions (both bare and bracketed forms) before the
// question text becomes a cache key.
var mentionRe = regexp.MustCompile(`<@!?\d+>|@\S+`)

// whitespaceRe collapses runs of whitespace.
var whitespaceRe = regexp.MustCompile(`\s+`)

// Classifier classifies questions into complexity tiers, caching
// results by normalized question text.
type Classifier struct {
	completer provider.Completer
	cache     *Cache
	timeout   time.Duration
}

// Config contains configuration for creating a Classifier.
type Config struct {
	// Completer issues the remote classification call.
	Completer provider.Completer
	// CacheTTL is how long a classification stays fresh.
	CacheTTL time.Duration
	// CacheCapacity is the soft bound on cached questions.
	CacheCapacity int
	// Timeout bounds one remote classification call.
	Timeout time.Duration
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = 512
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Classifier{
		completer: cfg.Completer,
		cache:     NewCache(ttl, capacity),
		timeout:   timeout,
	}
}

// Classify returns the complexity classification for a question.
// Cache hits within the TTL issue no remote call. Any failure falls
// back to DefaultLevel rather than propagating an error.
func (c *Classifier) Classify(ctx context.Context, question string) models.Classification {
	key := Normalize(question)
	if key == "" {
		return models.Classification{Level: DefaultLevel, Category: "smalltalk"}
	}

	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	result, err := c.classifyRemote(ctx, question)
	if err != nil {
		log.Printf("[classify] remote classification failed, defaulting to %s: %v", DefaultLevel, err)
		return models.Classification{Level: DefaultLevel}
	}

	c.cache.Put(key, result)
	return result
}

// Normalize derives the cache key: mentions stripped, whitespace
// collapsed, lowercased.
func Normalize(question string) string {
	s := mentionRe.ReplaceAllString(question, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// classifyRemote issues one classification call and parses the result.
func (c *Classifier) classifyRemote(ctx context.Context, question string) (models.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.completer.Complete(ctx, provider.Request{
		System:      classifySystemPrompt,
		Prompt:      question,
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		return models.Classification{}, err
	}

	result, err := parseClassification(raw)
	if err != nil {
		return models.Classification{}, err
	}
	return result, nil
}

// classifySystemPrompt asks for a strict JSON classification object.
// The four level values are the contract; wording is incidental.
const classifySystemPrompt = `Classify the user's question by how much depth a good answer requires.
Respond with a single JSON object and nothing else:
{"level": "simple|normal|deep|expert", "category": "<topic label>", "reasoning": "<one sentence>"}`

// parseClassification decodes the model's response, tolerating fence
// markers and mildly malformed JSON, and validates the level.
func parseClassification(raw string) (models.Classification, error) {
	payload := extractObject(raw)

	var result models.Classification
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		if _, ok := err.(*json.SyntaxError); !ok {
			return models.Classification{}, err
		}
		fixed, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return models.Classification{}, repairErr
		}
		if err := json.Unmarshal([]byte(fixed), &result); err != nil {
			return models.Classification{}, err
		}
	}

	if !result.Level.Valid() {
		log.Printf("[classify] model returned unknown level %q, defaulting to %s", result.Level, DefaultLevel)
		result.Level = DefaultLevel
	}
	return result, nil
}

// extractObject returns the outermost {...} span of s, or s unchanged
// if no brace pair is found. Models often wrap JSON in prose or fences.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
