// Package state defines the lifecycle state machines for the processing
// context and the desktop shell.
package state

import (
	"fmt"
	"strings"
)

// ContextState represents the lifecycle state of the processing context.
type ContextState int

const (
	// ContextUninitialized is the state before initialization was requested.
	ContextUninitialized ContextState = iota
	// ContextInitializing indicates the context is being built.
	ContextInitializing
	// ContextReady indicates the context can accept jobs.
	ContextReady
	// ContextFailed indicates construction failed. Terminal.
	ContextFailed
	// ContextStopping indicates the context is draining its workers.
	ContextStopping
	// ContextStopped indicates the context has been shut down. Terminal.
	ContextStopped
)

// String returns the string representation of the state.
func (s ContextState) String() string {
	switch s {
	case ContextUninitialized:
		return "Uninitialized"
	case ContextInitializing:
		return "Initializing"
	case ContextReady:
		return "Ready"
	case ContextFailed:
		return "Failed"
	case ContextStopping:
		return "Stopping"
	case ContextStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
var validTransitions = map[ContextState][]ContextState{
	ContextUninitialized: {ContextInitializing},
	ContextInitializing:  {ContextReady, ContextFailed},
	ContextReady:         {ContextStopping},
	ContextFailed:        {},
	ContextStopping:      {ContextStopped},
	ContextStopped:       {},
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s ContextState) CanTransitionTo(target ContextState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s ContextState) ValidTransitions() []ContextState {
	return validTransitions[s]
}

// Transition validates a move to target. The returned error lists the states
// that are reachable from s.
func (s ContextState) Transition(target ContextState) error {
	if s.CanTransitionTo(target) {
		return nil
	}
	next := s.ValidTransitions()
	if len(next) == 0 {
		return NewTransitionError(s, target, s.String()+" is terminal")
	}
	names := make([]string, len(next))
	for i, n := range next {
		names[i] = n.String()
	}
	return NewTransitionError(s, target, "expected one of "+strings.Join(names, ", "))
}

// IsTerminal returns true if no further transitions are possible.
func (s ContextState) IsTerminal() bool {
	return s == ContextFailed || s == ContextStopped
}

// IsSettled returns true once initialization has finished, successfully or not.
func (s ContextState) IsSettled() bool {
	return s != ContextUninitialized && s != ContextInitializing
}

// CanAcceptJobs returns true if jobs may be submitted in this state.
func (s ContextState) CanAcceptJobs() bool {
	return s == ContextReady
}

// WindowState represents whether the main window made it onto the screen.
type WindowState int

const (
	WindowNotShown WindowState = iota
	WindowShown
	WindowFailed
)

func (s WindowState) String() string {
	switch s {
	case WindowNotShown:
		return "NotShown"
	case WindowShown:
		return "Shown"
	case WindowFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   ContextState
	To     ContextState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to ContextState, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
