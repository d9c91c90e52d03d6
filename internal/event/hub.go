// Package event provides a minimal in-process subscribe/notify hub.
//
// The engine publishes state-changed events through a Hub; rendering and any
// other reaction is entirely the subscriber's concern.
package event

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this loses the oldest pending event rather than
// blocking the publisher.
const subscriberBuffer = 16

// Hub fans events of type T out to all current subscribers.
// The zero value is not usable; create hubs with NewHub.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a new subscriber and returns its event channel together
// with a cancel function. Cancel is idempotent and closes the channel.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan T, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking. If a subscriber's
// buffer is full, its oldest pending event is dropped to make room.
func (h *Hub[T]) Publish(ev T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Buffer full: drop the oldest and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Len returns the current number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
