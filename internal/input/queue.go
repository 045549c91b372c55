package input

import (
	"sync"
	"sync/atomic"

	"github.com/verte-zerg/strafe/internal/model"
)

// DefaultQueueSize is the event buffer used when none is configured.
const DefaultQueueSize = 256

// Queue is a bounded FIFO of logical events. Publish never blocks; events
// arriving while the queue is full or closed are dropped.
type Queue struct {
	mu      sync.RWMutex
	ch      chan model.InputEvent
	closed  bool
	dropped atomic.Uint64
}

// NewQueue returns a queue holding up to size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan model.InputEvent, size)}
}

// Publish enqueues ev. It reports false when the event was dropped.
func (q *Queue) Publish(ev model.InputEvent) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return false
	}
	select {
	case q.ch <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// TryNext pops one event without blocking.
func (q *Queue) TryNext() (model.InputEvent, bool) {
	select {
	case ev, ok := <-q.ch:
		return ev, ok
	default:
		return 0, false
	}
}

// DrainAll pops the events queued at call time in arrival order without
// blocking. Events published during the drain wait for the next call.
func (q *Queue) DrainAll() []model.InputEvent {
	n := len(q.ch)
	if n == 0 {
		return nil
	}
	events := make([]model.InputEvent, 0, n)
	for range n {
		ev, ok := q.TryNext()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	return events
}

// Dropped returns how many events were discarded.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops accepting events. Queued events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
