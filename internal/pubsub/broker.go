// Package pubsub implements a small generic publish/subscribe broker.
//
// Publishing never blocks: each subscriber owns an unbounded queue drained
// by its own pump goroutine, so a slow consumer cannot back-pressure the
// publishing side (protocol read loops publish from hot paths).
package pubsub

import (
	"context"
	"sync"
)

// Broker fans events out to any number of subscribers.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   map[*subscription[T]]struct{}
	closed bool
}

type subscription[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event[T]
	ch     chan Event[T]
	done   chan struct{}
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[*subscription[T]]struct{})}
}

// Subscribe registers a new subscriber and returns its delivery channel.
// The channel is closed when ctx is cancelled or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	sub := &subscription[T]{ch: make(chan Event[T]), done: make(chan struct{})}
	sub.cond = sync.NewCond(&sub.mu)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.pump()

	go func() {
		<-ctx.Done()
		b.remove(sub)
	}()

	return sub.ch
}

// Publish enqueues the event for every current subscriber and returns
// immediately.
func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		sub.enqueue(Event[T]{Type: t, Payload: payload})
	}
}

// Shutdown closes all subscriber channels. Undelivered events are dropped.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[*subscription[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

func (b *Broker[T]) remove(sub *subscription[T]) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()

	if ok {
		sub.close()
	}
}

func (s *subscription[T]) enqueue(ev Event[T]) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, ev)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription[T]) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// pump moves events from the queue to the channel, blocking only on the
// consumer side. Close drops whatever is still queued: a departing
// subscriber has no reader left for those events.
func (s *subscription[T]) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.queue = nil
			s.mu.Unlock()
			close(s.ch)
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- ev:
		case <-s.done:
			close(s.ch)
			return
		}
	}
}
