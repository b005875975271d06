// Package event defines all events that can be published by the application.
// Events represent state changes and are consumed by the presentation layer.
package event

import (
	"time"

	"tsanomaly/core/state"
)

// Source names used by SourceEvent implementations.
const (
	SourceContext = "context"
	SourceShell   = "shell"
)

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// SourceEvent is an event that originates from a specific component.
type SourceEvent interface {
	Event
	// Source returns the name of the originating component
	Source() string
}

type contextEvent struct{}

func (contextEvent) Source() string { return SourceContext }

// ContextStateChanged is published on every processing-context lifecycle transition.
type ContextStateChanged struct {
	contextEvent
	OldState state.ContextState
	NewState state.ContextState
}

func NewContextStateChanged(oldState, newState state.ContextState) *ContextStateChanged {
	return &ContextStateChanged{OldState: oldState, NewState: newState}
}

func (e *ContextStateChanged) EventName() string {
	return "ContextStateChanged"
}

// ContextReady is published once the processing context accepts jobs.
type ContextReady struct {
	contextEvent
	AppName string
	Master  string
	Workers int
}

func NewContextReady(appName, master string, workers int) *ContextReady {
	return &ContextReady{AppName: appName, Master: master, Workers: workers}
}

func (e *ContextReady) EventName() string {
	return "ContextReady"
}

// ContextFailed is published when the processing context could not be built.
type ContextFailed struct {
	contextEvent
	Error error
}

func NewContextFailed(err error) *ContextFailed {
	return &ContextFailed{Error: err}
}

func (e *ContextFailed) EventName() string {
	return "ContextFailed"
}

// JobFinished is published after a job ran on the processing context.
type JobFinished struct {
	contextEvent
	Name     string
	Tasks    int
	Duration time.Duration
	Error    error // nil if every task succeeded
}

func NewJobFinished(name string, tasks int, d time.Duration, err error) *JobFinished {
	return &JobFinished{Name: name, Tasks: tasks, Duration: d, Error: err}
}

func (e *JobFinished) EventName() string {
	return "JobFinished"
}
