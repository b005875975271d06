package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tsanomaly/core/event"
	"tsanomaly/core/eventbus"
	"tsanomaly/core/state"
	"tsanomaly/domain/processing"
	"tsanomaly/infrastructure/engine"
)

var (
	// ErrNotInitialized is returned by Get before Start was called.
	ErrNotInitialized = errors.New("processing context not initialized")
	// ErrNotReady is returned by Get while initialization is still running.
	ErrNotReady = errors.New("processing context not ready")
	// ErrShutdown is returned once the context has been stopped.
	ErrShutdown = errors.New("processing context shut down")
)

// ContextFactory builds a processing context.
type ContextFactory func(cfg *processing.Config, opts *engine.Options) (*engine.Context, error)

// HolderConfig holds configuration for the ContextHolder.
type HolderConfig struct {
	Processing *processing.Config
	EventBus   eventbus.EventBus
	Factory    ContextFactory
	Logger     *slog.Logger
}

// ContextHolder owns the single processing context of the process. It builds
// the context at most once, signals readiness through Ready, and hands the
// context to consumers that receive the holder explicitly.
type ContextHolder struct {
	conf     processing.Config
	eventBus eventbus.EventBus
	factory  ContextFactory
	logger   *slog.Logger

	startOnce    sync.Once
	shutdownOnce sync.Once
	ready        chan struct{}

	mu    sync.RWMutex
	state state.ContextState
	ctx   *engine.Context
	err   error
}

// NewContextHolder creates a holder in the Uninitialized state.
func NewContextHolder(cfg *HolderConfig) *ContextHolder {
	if cfg == nil {
		cfg = &HolderConfig{}
	}
	if cfg.Processing == nil {
		cfg.Processing = processing.DefaultConfig()
	}
	if cfg.Factory == nil {
		cfg.Factory = engine.New
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &ContextHolder{
		conf:     *cfg.Processing,
		eventBus: cfg.EventBus,
		factory:  cfg.Factory,
		logger:   cfg.Logger,
		ready:    make(chan struct{}),
		state:    state.ContextUninitialized,
	}
}

// Start launches initialization in the background. Only the first call has an effect.
func (h *ContextHolder) Start() {
	h.startOnce.Do(func() {
		h.transition(state.ContextInitializing)
		go h.initialize()
	})
}

// Initialize starts initialization if needed and waits for it to finish.
func (h *ContextHolder) Initialize(ctx context.Context) (*engine.Context, error) {
	h.Start()
	return h.Wait(ctx)
}

func (h *ContextHolder) initialize() {
	defer close(h.ready)

	start := time.Now()
	pc, err := h.build()

	h.mu.Lock()
	h.ctx, h.err = pc, err
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("Processing context initialization failed", "error", err)
		h.transition(state.ContextFailed)
		h.publish(event.NewContextFailed(err))
		return
	}

	h.logger.Info("Processing context ready",
		"app", pc.AppName(), "master", pc.Master(), "workers", pc.Workers(),
		"took", time.Since(start).Round(time.Millisecond))
	h.transition(state.ContextReady)
	h.publish(event.NewContextReady(pc.AppName(), pc.Master(), pc.Workers()))
}

// build calls the factory and turns a panic into an error so the failure
// always reaches Wait and the event bus.
func (h *ContextHolder) build() (pc *engine.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			pc, err = nil, fmt.Errorf("processing context construction panicked: %v", r)
		}
	}()

	conf := h.conf
	pc, err = h.factory(&conf, &engine.Options{
		Logger:        h.logger,
		OnJobFinished: h.onJobFinished,
	})
	if err == nil && pc == nil {
		err = errors.New("processing context factory returned nil")
	}
	return pc, err
}

func (h *ContextHolder) onJobFinished(name string, tasks int, d time.Duration, err error) {
	h.publish(event.NewJobFinished(name, tasks, d, err))
}

// Ready is closed once initialization has finished, successfully or not.
func (h *ContextHolder) Ready() <-chan struct{} {
	return h.ready
}

// Wait blocks until the context is ready or ctx is done.
// Calling Wait before Start blocks until Start is called elsewhere.
func (h *ContextHolder) Wait(ctx context.Context) (*engine.Context, error) {
	select {
	case <-h.ready:
		return h.Get()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the context without blocking.
func (h *ContextHolder) Get() (*engine.Context, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch h.state {
	case state.ContextUninitialized:
		return nil, ErrNotInitialized
	case state.ContextInitializing:
		return nil, ErrNotReady
	case state.ContextFailed:
		return nil, h.err
	case state.ContextStopping, state.ContextStopped:
		return nil, ErrShutdown
	default:
		return h.ctx, nil
	}
}

// State returns the current lifecycle state.
func (h *ContextHolder) State() state.ContextState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Shutdown stops the context. If initialization is still running it waits
// for it first. Safe to call more than once and before Start.
func (h *ContextHolder) Shutdown() {
	h.shutdownOnce.Do(func() {
		if h.State() == state.ContextUninitialized {
			return
		}
		<-h.ready

		h.mu.RLock()
		pc := h.ctx
		h.mu.RUnlock()
		if pc == nil || !h.transition(state.ContextStopping) {
			return
		}

		pc.Stop()
		h.transition(state.ContextStopped)
	})
}

// transition moves to target and publishes the change. Invalid transitions
// are logged and ignored.
func (h *ContextHolder) transition(target state.ContextState) bool {
	h.mu.Lock()
	from := h.state
	if err := from.Transition(target); err != nil {
		h.mu.Unlock()
		h.logger.Warn("Ignoring context state change", "error", err)
		return false
	}
	h.state = target
	h.mu.Unlock()

	h.logger.Debug("Context state changed", "from", from, "to", target)
	h.publish(event.NewContextStateChanged(from, target))
	return true
}

func (h *ContextHolder) publish(e event.Event) {
	if h.eventBus != nil {
		h.eventBus.Publish(e)
	}
}
