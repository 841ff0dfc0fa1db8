package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog/internal/logger"
)

// EventBus dispatches published events to matching subscriptions.
type EventBus interface {
	// Publish enqueues an event; it blocks only if the buffer is full.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler for events matching the filter.
	Subscribe(filter Filter, subscriber string, handler Handler) (*Subscription, error)

	// Unsubscribe removes a subscription by id.
	Unsubscribe(subscriptionID string) error

	// Start begins dispatching.
	Start(ctx context.Context) error

	// Stop drains and shuts down the bus.
	Stop(ctx context.Context) error
}

// Config tunes the bus.
type Config struct {
	BufferSize int
}

// DefaultConfig returns the default bus configuration.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Bus is the in-process EventBus implementation. Events are dispatched
// from a single goroutine; handler errors are logged, never propagated
// to publishers.
type Bus struct {
	config  Config
	storage Storage

	mu            sync.RWMutex
	subscriptions map[string]*Subscription

	queue   chan Event
	done    chan struct{}
	started bool
}

// NewBus creates a bus. storage may be nil to disable persistence.
func NewBus(config Config, storage Storage) *Bus {
	if config.BufferSize < 1 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	return &Bus{
		config:        config,
		storage:       storage,
		subscriptions: make(map[string]*Subscription),
		queue:         make(chan Event, config.BufferSize),
		done:          make(chan struct{}),
	}
}

// New creates an event with a fresh id and timestamp.
func New(eventType EventType, source, title, message string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Title:     title,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func (b *Bus) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	done := b.done
	b.mu.RUnlock()

	select {
	case b.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return fmt.Errorf("event bus stopped")
	}
}

func (b *Bus) Subscribe(filter Filter, subscriber string, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler must not be nil")
	}
	sub := &Subscription{
		ID:         uuid.NewString(),
		Filter:     filter,
		Handler:    handler,
		Subscriber: subscriber,
		Created:    time.Now().UTC(),
	}
	b.mu.Lock()
	b.subscriptions[sub.ID] = sub
	b.mu.Unlock()
	return sub, nil
}

func (b *Bus) Unsubscribe(subscriptionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscriptions[subscriptionID]; !ok {
		return fmt.Errorf("unknown subscription: %s", subscriptionID)
	}
	delete(b.subscriptions, subscriptionID)
	return nil
}

// Start begins dispatching. A stopped bus can be started again; each
// start gets a fresh shutdown channel.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go b.dispatchLoop(done)
	return nil
}

func (b *Bus) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	b.started = false
	close(b.done)
	return nil
}

func (b *Bus) dispatchLoop(done <-chan struct{}) {
	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		case <-done:
			// Drain whatever is left before exiting.
			for {
				select {
				case event := <-b.queue:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(event Event) {
	if b.storage != nil {
		if err := b.storage.Store(event); err != nil {
			logger.Warn("failed to persist event", "type", event.Type, "error", err)
		}
	}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.Filter.Matches(event) {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Handler(event); err != nil {
			logger.Warn("event handler failed",
				"type", event.Type,
				"subscriber", sub.Subscriber,
				"error", err)
		}
	}
}
