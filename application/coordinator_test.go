package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"tsanomaly/core/command"
	"tsanomaly/core/event"
	"tsanomaly/core/eventbus"
	"tsanomaly/core/state"
)

type unknownCommand struct{}

func (unknownCommand) CommandName() string { return "Unknown" }

func TestNewCoordinator_DefaultHolder(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})

	if c.Holder() == nil {
		t.Fatal("Holder() should not be nil")
	}
	if c.Holder().State() != state.ContextUninitialized {
		t.Errorf("State() = %v, want Uninitialized", c.Holder().State())
	}
}

func TestCoordinator_Lifecycle(t *testing.T) {
	bus := eventbus.New(10)
	defer bus.Close()

	c := NewCoordinator(&CoordinatorConfig{EventBus: bus})
	c.Start()

	pc, err := c.Holder().Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if pc.Workers() != 2 {
		t.Errorf("Workers() = %d, want 2", pc.Workers())
	}

	c.Stop()

	if c.Holder().State() != state.ContextStopped {
		t.Errorf("State() after Stop = %v, want Stopped", c.Holder().State())
	}
}

func TestCoordinator_DispatchInitializeWait(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})
	defer c.Stop()

	if err := c.Dispatch(&command.InitializeContext{Wait: true}); err != nil {
		t.Fatalf("Dispatch(InitializeContext) error = %v", err)
	}
	if c.Holder().State() != state.ContextReady {
		t.Errorf("State() = %v, want Ready", c.Holder().State())
	}
}

func TestCoordinator_DispatchRunJob(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})
	defer c.Stop()

	var ran atomic.Int32
	task := func(ctx context.Context) error {
		ran.Add(1)
		return nil
	}

	// Before the context exists the job is refused
	err := c.Dispatch(command.NewRunJob("early", task))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Dispatch(RunJob) before init error = %v, want ErrNotInitialized", err)
	}

	if err := c.Dispatch(&command.InitializeContext{Wait: true}); err != nil {
		t.Fatalf("Dispatch(InitializeContext) error = %v", err)
	}
	if err := c.Dispatch(command.NewRunJob("count", task, task, task)); err != nil {
		t.Fatalf("Dispatch(RunJob) error = %v", err)
	}
	if ran.Load() != 3 {
		t.Errorf("ran = %d, want 3", ran.Load())
	}
}

func TestCoordinator_DispatchUnknown(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})

	if err := c.Dispatch(unknownCommand{}); err == nil {
		t.Error("Expected error for unknown command")
	}
}

func TestCoordinator_HandleEvent(t *testing.T) {
	c := NewCoordinator(&CoordinatorConfig{})

	// Must not panic on events it does not care about
	c.handleEvent(event.NewShellFailed("layouts/main_window.yaml", errors.New("missing")))
	c.handleEvent(event.NewJobFinished("job", 1, 0, errors.New("failed")))
	c.handleEvent(event.NewContextStateChanged(state.ContextUninitialized, state.ContextInitializing))
}
