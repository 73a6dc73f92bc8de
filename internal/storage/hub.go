package storage

import (
	"context"
	"sync"
)

// Hub fans snapshots out to subscribers. Each subscriber holds at most one
// pending snapshot; publishing replaces it.
type Hub[T any] struct {
	// refresh serializes load-and-deliver so snapshots read from an
	// external store reach subscribers in the order they were read.
	refresh sync.Mutex

	mu     sync.Mutex
	subs   map[int]chan T
	next   int
	closed bool
	done   chan struct{}
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[int]chan T),
		done: make(chan struct{}),
	}
}

// Subscribe registers a subscriber that first receives initial. The
// subscription ends when ctx is done or the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context, initial T) <-chan T {
	ch := make(chan T, 1)
	ch <- initial

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}()
	return ch
}

// SubscribeWith registers a subscriber whose initial snapshot comes from
// load. No Refresh runs between the load and the registration, so a write
// that lands after the load is always delivered.
func (h *Hub[T]) SubscribeWith(ctx context.Context, load func(context.Context) (T, error)) (<-chan T, error) {
	h.refresh.Lock()
	defer h.refresh.Unlock()

	initial, err := load(ctx)
	if err != nil {
		return nil, err
	}
	return h.Subscribe(ctx, initial), nil
}

// Refresh loads a fresh snapshot and publishes it. It does nothing when
// nobody is subscribed.
func (h *Hub[T]) Refresh(ctx context.Context, load func(context.Context) (T, error)) error {
	h.refresh.Lock()
	defer h.refresh.Unlock()

	if !h.Active() {
		return nil
	}
	v, err := load(ctx)
	if err != nil {
		return err
	}
	h.Publish(v)
	return nil
}

// Active reports whether anyone is subscribed.
func (h *Hub[T]) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs) > 0
}

// Publish replaces each subscriber's pending snapshot with v.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Close ends all subscriptions. It is safe to call more than once.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
	close(h.done)
}
