package broadcast

import (
	"testing"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

func TestEmitterDeliversInOrder(t *testing.T) {
	e := NewEmitter(8)
	for i := 0; i < 3; i++ {
		e.Publish(models.Turn{AgentID: "a", Order: i})
	}
	e.Close()

	i := 0
	for turn := range e.Turns() {
		if turn.Order != i {
			t.Fatalf("got order %d at position %d", turn.Order, i)
		}
		i++
	}
	if i != 3 {
		t.Fatalf("received %d turns, want 3", i)
	}
}

func TestEmitterDropsWhenFull(t *testing.T) {
	e := NewEmitter(1)
	e.Publish(models.Turn{Order: 0})

	done := make(chan struct{})
	go func() {
		e.Publish(models.Turn{Order: 1}) // buffer full, no reader
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked instead of dropping")
	}
	if e.DroppedCount() != 1 {
		t.Fatalf("dropped = %d, want 1", e.DroppedCount())
	}
}

func TestFuncAdapter(t *testing.T) {
	var got models.Turn
	p := Func(func(t models.Turn) { got = t })
	p.Publish(models.Turn{AgentID: "x"})
	if got.AgentID != "x" {
		t.Fatalf("adapter did not forward turn")
	}
}
