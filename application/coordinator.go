// Package application provides the application layer that owns the processing
// context and routes commands from the presentation layer.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tsanomaly/core/command"
	"tsanomaly/core/event"
	"tsanomaly/core/eventbus"
	"tsanomaly/infrastructure/engine"
)

// Coordinator routes commands to the context holder and logs lifecycle events.
type Coordinator struct {
	holder   *ContextHolder
	eventBus eventbus.EventBus
	logger   *slog.Logger

	subscriptionID string

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	Holder   *ContextHolder
	EventBus eventbus.EventBus
	Logger   *slog.Logger
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Holder == nil {
		cfg.Holder = NewContextHolder(&HolderConfig{EventBus: cfg.EventBus, Logger: cfg.Logger})
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		holder:   cfg.Holder,
		eventBus: cfg.EventBus,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	if c.eventBus != nil {
		c.subscriptionID = c.eventBus.Subscribe(c.handleEvent)
	}

	return c
}

// Holder returns the context holder so consumers can receive the processing context.
func (c *Coordinator) Holder() *ContextHolder {
	return c.holder
}

// Start begins building the processing context in the background.
func (c *Coordinator) Start() {
	if err := c.Dispatch(&command.InitializeContext{}); err != nil {
		c.logger.Error("Failed to start processing context", "error", err)
	}
	c.logger.Info("Coordinator started")
}

// Stop cancels running jobs and shuts down the processing context.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(c.stop)
}

func (c *Coordinator) stop() {
	c.cancel()

	done := make(chan struct{})
	go func() {
		_ = c.Dispatch(&command.ShutdownContext{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Coordinator stop timeout, processing context may not have stopped cleanly")
	}

	if c.eventBus != nil && c.subscriptionID != "" {
		c.eventBus.Unsubscribe(c.subscriptionID)
	}
	c.logger.Info("Coordinator stopped")
}

// Dispatch sends a command to the appropriate handler.
func (c *Coordinator) Dispatch(cmd command.Command) error {
	c.logger.Debug("Dispatching command", "command", cmd.CommandName())

	switch cmd := cmd.(type) {
	case *command.InitializeContext:
		return c.handleInitialize(cmd)
	case *command.ShutdownContext:
		c.holder.Shutdown()
		return nil
	case *command.RunJob:
		return c.handleRunJob(cmd)
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}
}

func (c *Coordinator) handleInitialize(cmd *command.InitializeContext) error {
	if !cmd.Wait {
		c.holder.Start()
		return nil
	}
	_, err := c.holder.Initialize(c.ctx)
	return err
}

func (c *Coordinator) handleRunJob(cmd *command.RunJob) error {
	pc, err := c.holder.Get()
	if err != nil {
		return fmt.Errorf("cannot run job %s: %w", cmd.Name, err)
	}

	tasks := make([]engine.Task, len(cmd.Tasks))
	for i, t := range cmd.Tasks {
		tasks[i] = t
	}
	return pc.RunJob(c.ctx, cmd.Name, tasks...)
}

// handleEvent handles events from the event bus.
func (c *Coordinator) handleEvent(e event.Event) {
	switch evt := e.(type) {
	case *event.ShellFailed:
		// Shell already reported the failure.
		c.logger.Debug("Main window unavailable, processing context keeps running", "layout", evt.LayoutPath, "error", evt.Error)
	case *event.JobFinished:
		if evt.Error != nil {
			c.logger.Debug("Job finished with error", "job", evt.Name, "error", evt.Error)
		}
	}
}
