package eventbus

import (
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"tsanomaly/core/event"
)

// subscription represents a single event subscription.
type subscription struct {
	id      string
	handler EventHandler
	source  string // Empty string means subscribe to all events
}

// channelEventBus is a channel-based implementation of EventBus.
type channelEventBus struct {
	eventChan     chan event.Event
	subscriptions map[string]*subscription
	logger        *slog.Logger
	mu            sync.RWMutex
	closeMu       sync.RWMutex
	closed        bool
	wg            sync.WaitGroup
	nextID        atomic.Uint64
}

// Option configures the event bus.
type Option func(*channelEventBus)

// WithLogger sets the logger used to report dropped events and handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *channelEventBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a new EventBus with the specified buffer size.
func New(bufferSize int, opts ...Option) EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	bus := &channelEventBus{
		eventChan:     make(chan event.Event, bufferSize),
		subscriptions: make(map[string]*subscription),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(bus)
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish publishes an event to all subscribers.
func (b *channelEventBus) Publish(e event.Event) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.eventChan <- e:
	default:
		b.logger.Warn("Event bus full, event dropped", "event", e.EventName())
	}
}

// Subscribe subscribes to all events.
func (b *channelEventBus) Subscribe(handler EventHandler) string {
	return b.subscribe("", handler)
}

// SubscribeSource subscribes to events from a specific component.
func (b *channelEventBus) SubscribeSource(source string, handler EventHandler) string {
	return b.subscribe(source, handler)
}

func (b *channelEventBus) subscribe(source string, handler EventHandler) string {
	id := "sub-" + strconv.FormatUint(b.nextID.Add(1), 10)

	b.mu.Lock()
	b.subscriptions[id] = &subscription{
		id:      id,
		handler: handler,
		source:  source,
	}
	b.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription by its ID.
func (b *channelEventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	delete(b.subscriptions, subscriptionID)
	b.mu.Unlock()
}

// Close shuts down the event bus.
func (b *channelEventBus) Close() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	close(b.eventChan)
	b.closeMu.Unlock()

	b.wg.Wait()
}

// dispatch is the main event dispatch loop.
func (b *channelEventBus) dispatch() {
	defer b.wg.Done()

	for e := range b.eventChan {
		b.deliverEvent(e)
	}
}

// deliverEvent delivers an event to all matching subscribers.
func (b *channelEventBus) deliverEvent(e event.Event) {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var source string
	if se, ok := e.(event.SourceEvent); ok {
		source = se.Source()
	}

	for _, sub := range subs {
		if sub.source != "" && sub.source != source {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Event handler panicked", "event", e.EventName(), "subscription", sub.id, "panic", r)
				}
			}()
			sub.handler(e)
		}()
	}
}
