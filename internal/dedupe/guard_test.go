package dedupe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMarkFirstCallerWins(t *testing.T) {
	g := NewGuard(time.Minute)
	g.Begin("sess", "run-1")

	if !g.Mark("sess", "sess:run-1:a1:0") {
		t.Fatal("first mark refused")
	}
	if g.Mark("sess", "sess:run-1:a1:0") {
		t.Fatal("duplicate mark accepted")
	}
	if !g.Mark("sess", "sess:run-1:a2:1") {
		t.Fatal("distinct key refused")
	}
	if g.Phase("sess") != PhaseAccumulating {
		t.Fatalf("phase = %v", g.Phase("sess"))
	}
}

func TestMarkRefusedOutsideRun(t *testing.T) {
	g := NewGuard(time.Minute)
	if g.Mark("sess", "k") {
		t.Fatal("mark accepted while idle")
	}
	g.Begin("sess", "run-1")
	g.Mark("sess", "k")
	g.Complete("sess")
	if g.Mark("sess", "k2") {
		t.Fatal("mark accepted after completion")
	}
}

func TestConcurrentMarkExactlyOneWinner(t *testing.T) {
	g := NewGuard(time.Minute)
	g.Begin("sess", "run-1")

	const workers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.Mark("sess", "contested") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("winners = %d, want 1", wins.Load())
	}
}

func TestBeginClearsLeakedKeys(t *testing.T) {
	g := NewGuard(time.Hour)
	g.Begin("sess", "run-1")
	g.Mark("sess", "stale")
	// run-1 never completes; a new run must still start clean.
	g.Begin("sess", "run-2")
	if g.Seen("sess", "stale") {
		t.Fatal("leaked key survived Begin")
	}
	if !g.Mark("sess", "stale") {
		t.Fatal("key refused in fresh run")
	}
}

func TestSessionsHaveIndependentLifecycles(t *testing.T) {
	g := NewGuard(time.Hour)

	g.Begin("slow", "run-a")
	if !g.Mark("slow", "slow:run-a:ada:0") {
		t.Fatal("slow session mark refused")
	}

	// A second session runs to completion while the first is mid-flight.
	g.Begin("fast", "run-b")
	g.Mark("fast", "fast:run-b:brin:0")
	g.Complete("fast")

	// The slow session is unaffected: its keys survive and it can
	// still mark new ones.
	if g.Phase("slow") != PhaseAccumulating {
		t.Fatalf("slow phase = %v after other session completed", g.Phase("slow"))
	}
	if !g.Seen("slow", "slow:run-a:ada:0") {
		t.Fatal("slow session key wiped by other session's lifecycle")
	}
	if !g.Mark("slow", "slow:run-a:cass:1") {
		t.Fatal("slow session mark refused after other session completed")
	}
	if g.Phase("fast") != PhaseCompleted {
		t.Fatalf("fast phase = %v", g.Phase("fast"))
	}
}

func TestGracePeriodRejectsStragglers(t *testing.T) {
	g := NewGuard(50 * time.Millisecond)
	g.Begin("sess", "run-1")
	g.Mark("sess", "k")
	g.Complete("sess")

	// Inside the grace window the key is still known.
	if !g.Seen("sess", "k") {
		t.Fatal("key gone before grace period elapsed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for g.Seen("sess", "k") {
		if time.Now().After(deadline) {
			t.Fatal("key never deleted after grace period")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if g.Phase("sess") != PhaseIdle {
		t.Fatalf("phase = %v, want idle", g.Phase("sess"))
	}
}

func TestGraceTimerYieldsToNewerRun(t *testing.T) {
	g := NewGuard(30 * time.Millisecond)
	g.Begin("sess", "run-1")
	g.Mark("sess", "old")
	g.Complete("sess")

	g.Begin("sess", "run-2")
	for i := 0; i < 5; i++ {
		g.Mark("sess", fmt.Sprintf("new-%d", i))
	}
	time.Sleep(100 * time.Millisecond)

	// run-1's timer must not have wiped run-2's keys.
	for i := 0; i < 5; i++ {
		if !g.Seen("sess", fmt.Sprintf("new-%d", i)) {
			t.Fatalf("new-%d deleted by stale timer", i)
		}
	}
	if g.Phase("sess") != PhaseAccumulating {
		t.Fatalf("phase = %v", g.Phase("sess"))
	}
}
