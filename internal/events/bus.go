package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/scanlink/internal/shared"
)

// All subscribes a handler to every event name.
const All = "*"

// Handler receives events. A returned error is reported to the emitter but does not stop
// delivery to other handlers.
type Handler func(Event) error

type subscription struct {
	id      uint64
	name    string
	handler Handler
}

// Bus is an in-process publish/subscribe [Emitter].
//
// Emit delivers synchronously to every matching handler in subscription order. Concurrent Emit
// calls are safe; handlers must be safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	now    func() time.Time
}

var _ Emitter = (*Bus)(nil)

// NewBus creates an empty [Bus].
func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Subscribe registers handler for name, or for every event when name is [All].
// The returned function removes the subscription.
func (b *Bus) Subscribe(name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Listen subscribes a buffered channel to name. Delivery blocks while the buffer is full, so
// slow readers apply backpressure instead of losing events. The returned function unsubscribes
// and closes the channel.
func (b *Bus) Listen(name string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	done := make(chan struct{})
	var (
		mu     sync.Mutex
		closed bool
	)

	unsubscribe := b.Subscribe(name, func(e Event) error {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- e:
		case <-done:
		}
		return nil
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			close(done)
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

// Emit wraps payload in an [Event] and delivers it. It fails with [shared.ErrInvalidInput] for
// an empty name and joins any handler errors.
func (b *Bus) Emit(name string, payload any) error {
	if name == "" {
		return fmt.Errorf("%w: event name is empty", shared.ErrInvalidInput)
	}

	event := Event{
		ID:         shared.GenerateID(),
		Name:       name,
		Payload:    payload,
		OccurredAt: b.now().UTC(),
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == name || s.name == All {
			targets = append(targets, s.handler)
		}
	}
	b.mu.RUnlock()

	var errs []error
	for _, h := range targets {
		if err := h(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
