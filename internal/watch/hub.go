// Package watch delivers full result snapshots to subscribers whenever the
// underlying data changes. Subscribers always receive complete snapshots,
// never deltas, so a consumer can render directly from the latest value.
package watch

import (
	"context"
	"sync"
)

// Hub fans out snapshots of type T to any number of subscribers. A slow
// subscriber never blocks a publish: its stale snapshot is replaced by the
// newest one.
type Hub[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// ctx is done.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan T, 1)
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish sends the snapshot to every subscriber. When a subscriber has not
// consumed the previous snapshot yet, the stale one is dropped in favor of
// the new one.
func (h *Hub[T]) Publish(snapshot T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
