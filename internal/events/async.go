package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("event publisher closed")
)

const deliveryTimeout = 5 * time.Second

// Async hands events to a background worker so request handlers never wait
// on the broker. When the queue is full new events are dropped with ErrQueueFull.
type Async struct {
	next   Publisher
	queue  chan queued
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type queued struct {
	ctx   context.Context
	event Event
}

func NewAsync(next Publisher, size int, logger *slog.Logger) *Async {
	if size <= 0 {
		size = 256
	}
	a := &Async{
		next:   next,
		queue:  make(chan queued, size),
		logger: logger,
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Publish(ctx context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		ctx, cancel := context.WithTimeout(q.ctx, deliveryTimeout)
		if err := a.next.Publish(ctx, q.event); err != nil {
			a.logger.WarnContext(ctx, "event delivery failed", "type", q.event.Type, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events, delivers what is queued, then closes the
// underlying publisher.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
