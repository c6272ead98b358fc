package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the Async buffer has no room left.
	ErrQueueFull = errors.New("event queue full")
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("event publisher closed")
)

// Sender delivers one event synchronously. *Publisher is a Sender.
type Sender interface {
	Publish(ctx context.Context, event Event) error
	IsHealthy() bool
	Close() error
}

// Async queues events in memory and delivers them from a single background
// goroutine, so Publish never waits on the broker.
type Async struct {
	sender  Sender
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewAsync starts the delivery goroutine. Each delivery gets its own
// timeout, detached from the request that produced the event.
func NewAsync(sender Sender, log *zap.Logger, size int, timeout time.Duration) *Async {
	a := &Async{
		sender:  sender,
		log:     log,
		timeout: timeout,
		queue:   make(chan Event, size),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish enqueues event without blocking.
func (a *Async) Publish(_ context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)

	for event := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.sender.Publish(ctx, event); err != nil {
			a.log.Warn("Dropped event",
				zap.String("event_id", event.EventID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// IsHealthy reports the health of the underlying sender.
func (a *Async) IsHealthy() bool {
	return a.sender.IsHealthy()
}

// Close stops accepting events, delivers everything already queued and then
// closes the sender.
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
	return a.sender.Close()
}
