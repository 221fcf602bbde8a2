package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// fastPolicy keeps test runtime negligible.
var fastPolicy = Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesRateLimit(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &anthropic.Error{StatusCode: 429}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %q", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_RateLimitExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", &anthropic.Error{StatusCode: 429}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != fastPolicy.MaxAttempts {
		t.Errorf("expected %d calls, got %d", fastPolicy.MaxAttempts, calls)
	}
}

func TestDo_AuthFailsImmediately(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", &anthropic.Error{StatusCode: 401}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("401 must not be retried: expected 1 call, got %d", calls)
	}
}

func TestDo_UnknownErrorsRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", errors.New("something inexplicable")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != fastPolicy.MaxAttempts {
		t.Errorf("unknown errors are retried up to the limit: expected %d calls, got %d",
			fastPolicy.MaxAttempts, calls)
	}
}

func TestDo_CommittedStreamNotRetried(t *testing.T) {
	calls := 0
	// A retryable status wrapped as committed must still not retry.
	_, err := Do(context.Background(), "test", fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", Committed(&anthropic.Error{StatusCode: 500})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("committed stream errors must not retry: expected 1 call, got %d", calls)
	}
	if !IsCommitted(err) {
		t.Error("committed marker should survive to the caller")
	}
}

func TestDo_ContextCancelAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	slow := Policy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, "test", slow, func(context.Context) (int, error) {
			return 0, errors.New("transient blip")
		})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestCommitted_Nil(t *testing.T) {
	if Committed(nil) != nil {
		t.Error("Committed(nil) should be nil")
	}
	if IsCommitted(nil) {
		t.Error("IsCommitted(nil) should be false")
	}
}

func TestBackoff_Bounds(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoff(p, attempt)
		base := p.BaseDelay << (attempt - 1)
		if base > p.MaxDelay || base <= 0 {
			base = p.MaxDelay
		}
		if d < base {
			t.Errorf("attempt %d: delay %v below base %v", attempt, d, base)
		}
		if d > p.MaxDelay {
			t.Errorf("attempt %d: delay %v exceeds cap %v", attempt, d, p.MaxDelay)
		}
	}
}
