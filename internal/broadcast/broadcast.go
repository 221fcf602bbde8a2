// Package broadcast carries finished turns to live subscribers while a
// generation run is still in flight.
package broadcast

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/troupehq/troupe/pkg/models"
)

// Publisher receives each turn the moment it clears the dedup guard.
// Publishing is best-effort: a slow subscriber never blocks generation.
type Publisher interface {
	Publish(t models.Turn)
}

// Func adapts a plain function to a Publisher.
type Func func(t models.Turn)

// Publish calls f.
func (f Func) Publish(t models.Turn) { f(t) }

// Nop is a Publisher that discards every turn.
var Nop Publisher = Func(func(models.Turn) {})

// Emitter fans turns out to a buffered channel subscribers can drain.
// It is thread-safe.
type Emitter struct {
	turns        chan models.Turn
	droppedCount atomic.Uint64
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		turns: make(chan models.Turn, bufferSize),
	}
}

// Publish sends a turn to the channel. If the channel is full, it tries
// with a timeout before dropping the turn. A dropped broadcast never
// affects the run's returned transcript; it only means a live viewer
// missed an update.
func (e *Emitter) Publish(t models.Turn) {
	select {
	case e.turns <- t:
		return
	default:
		// Channel full, try with timeout
	}

	select {
	case e.turns <- t:
		return
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[broadcast] WARNING: turn channel full, dropped broadcast (total dropped: %d): agent=%s", count, t.AgentID)
		}
	}
}

// DroppedCount returns the total number of turns dropped so far.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Turns returns a read-only channel subscribers drain.
func (e *Emitter) Turns() <-chan models.Turn {
	return e.turns
}

// Close closes the turn channel. Call when the run is over and no
// further Publish calls can happen.
func (e *Emitter) Close() {
	close(e.turns)
}
