package classify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/troupehq/troupe/internal/provider"
	"github.com/troupehq/troupe/pkg/models"
)

// fakeCompleter returns scripted responses and counts calls.
type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _ provider.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newClassifier(completer provider.Completer) *Classifier {
	return New(Config{
		Completer:     completer,
		CacheTTL:      time.Minute,
		CacheCapacity: 16,
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"  What   is\tGo? ", "what is go?"},
		{"<@123456> tell me about space", "tell me about space"},
		{"@everyone what now", "what now"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassify_ParsesResult(t *testing.T) {
	fake := &fakeCompleter{response: `{"level": "deep", "category": "technical", "reasoning": "multi-step"}`}
	c := newClassifier(fake)

	result := c.Classify(context.Background(), "how does a B-tree rebalance?")
	if result.Level != models.LevelDeep {
		t.Errorf("expected deep, got %s", result.Level)
	}
	if result.Category != "technical" {
		t.Errorf("expected technical, got %q", result.Category)
	}
}

func TestClassify_CacheIdempotence(t *testing.T) {
	fake := &fakeCompleter{response: `{"level": "simple", "category": "smalltalk"}`}
	c := newClassifier(fake)

	first := c.Classify(context.Background(), "hello")
	for i := 0; i < 1000; i++ {
		got := c.Classify(context.Background(), "hello")
		if got != first {
			t.Fatalf("iteration %d: cached result differs: %+v vs %+v", i, got, first)
		}
	}

	if fake.callCount() != 1 {
		t.Errorf("expected exactly 1 remote call, observed %d", fake.callCount())
	}
}

func TestClassify_CacheKeyNormalized(t *testing.T) {
	fake := &fakeCompleter{response: `{"level": "normal", "category": "factual"}`}
	c := newClassifier(fake)

	c.Classify(context.Background(), "What is Go?")
	c.Classify(context.Background(), "  what   is go? ")

	if fake.callCount() != 1 {
		t.Errorf("normalized variants should share a cache entry, observed %d calls", fake.callCount())
	}
}

func TestClassify_RemoteFailureDefaults(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("provider down")}
	c := newClassifier(fake)

	result := c.Classify(context.Background(), "anything")
	if result.Level != DefaultLevel {
		t.Errorf("expected default level on failure, got %s", result.Level)
	}
}

func TestClassify_InvalidLevelDefaults(t *testing.T) {
	fake := &fakeCompleter{response: `{"level": "galactic", "category": "factual"}`}
	c := newClassifier(fake)

	result := c.Classify(context.Background(), "how big is the sun")
	if result.Level != DefaultLevel {
		t.Errorf("expected default level for unknown tier, got %s", result.Level)
	}
	if result.Category != "factual" {
		t.Errorf("category should survive level fallback, got %q", result.Category)
	}
}

func TestParseClassification_ToleratesFencesAndTrailingCommas(t *testing.T) {
	raw := "```json\n{\"level\": \"expert\", \"category\": \"technical\",}\n```"
	result, err := parseClassification(raw)
	if err != nil {
		t.Fatalf("parseClassification: %v", err)
	}
	if result.Level != models.LevelExpert {
		t.Errorf("expected expert, got %s", result.Level)
	}
}

func TestClassify_EmptyQuestion(t *testing.T) {
	fake := &fakeCompleter{}
	c := newClassifier(fake)

	result := c.Classify(context.Background(), "  <@99>  ")
	if result.Level != DefaultLevel {
		t.Errorf("expected default level, got %s", result.Level)
	}
	if fake.callCount() != 0 {
		t.Errorf("empty questions must not reach the provider, observed %d calls", fake.callCount())
	}
}
