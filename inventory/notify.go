/*
notify.go - Fire-and-forget low-stock notifications

PURPOSE:
  Decouples stock mutations from whoever wants to hear about scarcity.
  The mutation path emits into a buffered channel and moves on; a single
  dispatcher goroutine fans events out to subscribers. A slow or absent
  subscriber can never block or fail a stock write.

DELIVERY CONTRACT:
  - Best effort. If the buffer is full the event is dropped (and the
    mutation service logs the drop).
  - Subscribers registered after an event was emitted do not see it.
  - Subscriber callbacks run on the dispatcher goroutine; keep them short.
*/
package inventory

import "sync"

// LowStockEvent reports a projection at or below the alert threshold.
type LowStockEvent struct {
	ProductID ProductID
	Name      string
	Quantity  int
}

// Notifier is a buffered fan-out of LowStockEvents.
type Notifier struct {
	mu   sync.RWMutex
	subs []func(LowStockEvent)

	events chan LowStockEvent
	done   chan struct{}
	once   sync.Once
}

// NewNotifier starts the dispatcher. buffer <= 0 uses a default of 16.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 16
	}
	n := &Notifier{
		events: make(chan LowStockEvent, buffer),
		done:   make(chan struct{}),
	}
	go n.dispatch()
	return n
}

// Subscribe registers fn for all future events.
func (n *Notifier) Subscribe(fn func(LowStockEvent)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
}

// Emit enqueues an event without blocking. Returns false if the event was
// dropped because the buffer is full or the notifier is closed.
func (n *Notifier) Emit(ev LowStockEvent) bool {
	select {
	case <-n.done:
		return false
	default:
	}
	select {
	case n.events <- ev:
		return true
	default:
		return false
	}
}

// Close stops the dispatcher after draining buffered events.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
}

func (n *Notifier) dispatch() {
	for {
		select {
		case ev := <-n.events:
			n.deliver(ev)
		case <-n.done:
			// Drain what was already buffered, then exit.
			for {
				select {
				case ev := <-n.events:
					n.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(ev LowStockEvent) {
	n.mu.RLock()
	subs := make([]func(LowStockEvent), len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
