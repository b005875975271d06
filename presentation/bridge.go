// Package presentation provides the desktop shell: it turns the declarative
// layout into a Fyne window and reflects application events in it.
package presentation

import (
	"log/slog"
	"sync"
	"time"

	"tsanomaly/application"
	"tsanomaly/core/event"
	"tsanomaly/core/eventbus"
	"tsanomaly/core/state"
	"tsanomaly/infrastructure/engine"
)

// UIEventBridge bridges UI intentions to the application layer and routes
// processing-context events back to the UI.
type UIEventBridge struct {
	coordinator *application.Coordinator
	eventBus    eventbus.EventBus
	logger      *slog.Logger

	// UI callbacks - set by UI components
	callbacks   *UICallbacks
	callbacksMu sync.RWMutex

	subscriptionID string
}

// UICallbacks contains callbacks for UI updates.
type UICallbacks struct {
	OnContextStateChanged func(oldState, newState state.ContextState)
	OnContextReady        func(appName, master string, workers int)
	OnContextFailed       func(err error)
	OnJobFinished         func(name string, tasks int, d time.Duration, err error)
}

// BridgeConfig holds configuration for UIEventBridge.
type BridgeConfig struct {
	Coordinator *application.Coordinator
	EventBus    eventbus.EventBus
	Logger      *slog.Logger
}

// NewUIEventBridge creates a new UI event bridge.
func NewUIEventBridge(cfg *BridgeConfig) *UIEventBridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &UIEventBridge{
		coordinator: cfg.Coordinator,
		eventBus:    cfg.EventBus,
		logger:      cfg.Logger,
		callbacks:   &UICallbacks{},
	}

	if b.eventBus != nil {
		b.subscriptionID = b.eventBus.SubscribeSource(event.SourceContext, b.handleEvent)
	}

	return b
}

// SetCallbacks sets the UI callbacks.
func (b *UIEventBridge) SetCallbacks(callbacks *UICallbacks) {
	b.callbacksMu.Lock()
	defer b.callbacksMu.Unlock()
	b.callbacks = callbacks
}

// Close unsubscribes from the event bus.
func (b *UIEventBridge) Close() {
	if b.eventBus != nil && b.subscriptionID != "" {
		b.eventBus.Unsubscribe(b.subscriptionID)
	}
}

// Query methods

// ContextSnapshot reports the processing context as it is now. UI built after
// the context settled uses it to catch up on events it never saw.
// Without a coordinator it reports Uninitialized.
func (b *UIEventBridge) ContextSnapshot() (state.ContextState, *engine.Context, error) {
	if b.coordinator == nil {
		return state.ContextUninitialized, nil, nil
	}
	holder := b.coordinator.Holder()
	st := holder.State()
	pc, err := holder.Get()
	return st, pc, err
}

// Publish forwards a UI-originated event to the event bus.
func (b *UIEventBridge) Publish(e event.Event) {
	if b.eventBus != nil {
		b.eventBus.Publish(e)
	}
}

// handleEvent routes events from the event bus to UI callbacks.
func (b *UIEventBridge) handleEvent(e event.Event) {
	b.callbacksMu.RLock()
	callbacks := b.callbacks
	b.callbacksMu.RUnlock()

	if callbacks == nil {
		return
	}

	switch evt := e.(type) {
	case *event.ContextStateChanged:
		if callbacks.OnContextStateChanged != nil {
			callbacks.OnContextStateChanged(evt.OldState, evt.NewState)
		}

	case *event.ContextReady:
		if callbacks.OnContextReady != nil {
			callbacks.OnContextReady(evt.AppName, evt.Master, evt.Workers)
		}

	case *event.ContextFailed:
		if callbacks.OnContextFailed != nil {
			callbacks.OnContextFailed(evt.Error)
		}

	case *event.JobFinished:
		if callbacks.OnJobFinished != nil {
			callbacks.OnJobFinished(evt.Name, evt.Tasks, evt.Duration, evt.Error)
		}

	default:
		b.logger.Debug("Unhandled event", "event", e.EventName())
	}
}
