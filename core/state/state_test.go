package state

import (
	"errors"
	"testing"
)

func TestContextState_String(t *testing.T) {
	tests := []struct {
		state    ContextState
		expected string
	}{
		{ContextUninitialized, "Uninitialized"},
		{ContextInitializing, "Initializing"},
		{ContextReady, "Ready"},
		{ContextFailed, "Failed"},
		{ContextStopping, "Stopping"},
		{ContextStopped, "Stopped"},
		{ContextState(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("ContextState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestContextState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     ContextState
		to       ContextState
		expected bool
	}{
		{"Uninitialized -> Initializing", ContextUninitialized, ContextInitializing, true},
		{"Uninitialized -> Ready (invalid)", ContextUninitialized, ContextReady, false},

		{"Initializing -> Ready", ContextInitializing, ContextReady, true},
		{"Initializing -> Failed", ContextInitializing, ContextFailed, true},
		{"Initializing -> Stopping (invalid)", ContextInitializing, ContextStopping, false},

		{"Ready -> Stopping", ContextReady, ContextStopping, true},
		{"Ready -> Initializing (invalid)", ContextReady, ContextInitializing, false},

		{"Stopping -> Stopped", ContextStopping, ContextStopped, true},
		{"Stopping -> Ready (invalid)", ContextStopping, ContextReady, false},

		{"Failed -> Initializing (invalid)", ContextFailed, ContextInitializing, false},
		{"Stopped -> Ready (invalid)", ContextStopped, ContextReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestContextState_Predicates(t *testing.T) {
	tests := []struct {
		state    ContextState
		terminal bool
		settled  bool
		jobs     bool
	}{
		{ContextUninitialized, false, false, false},
		{ContextInitializing, false, false, false},
		{ContextReady, false, true, true},
		{ContextFailed, true, true, false},
		{ContextStopping, false, true, false},
		{ContextStopped, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.state.IsSettled(); got != tt.settled {
				t.Errorf("IsSettled() = %v, want %v", got, tt.settled)
			}
			if got := tt.state.CanAcceptJobs(); got != tt.jobs {
				t.Errorf("CanAcceptJobs() = %v, want %v", got, tt.jobs)
			}
		})
	}
}

func TestWindowState_String(t *testing.T) {
	if got := WindowShown.String(); got != "Shown" {
		t.Errorf("String() = %v, want Shown", got)
	}
	if got := WindowState(7).String(); got != "Unknown(7)" {
		t.Errorf("String() = %v, want Unknown(7)", got)
	}
}

func TestTransitionError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransitionError
		expected string
	}{
		{
			"with reason",
			NewTransitionError(ContextReady, ContextInitializing, "already initialized"),
			"invalid state transition from Ready to Initializing: already initialized",
		},
		{
			"without reason",
			NewTransitionError(ContextStopped, ContextReady, ""),
			"invalid state transition from Stopped to Ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestContextState_Transition(t *testing.T) {
	if err := ContextInitializing.Transition(ContextReady); err != nil {
		t.Errorf("Initializing -> Ready error = %v, want nil", err)
	}

	tests := []struct {
		name     string
		from, to ContextState
		expected string
	}{
		{
			"lists allowed targets",
			ContextInitializing, ContextStopped,
			"invalid state transition from Initializing to Stopped: expected one of Ready, Failed",
		},
		{
			"terminal state",
			ContextStopped, ContextReady,
			"invalid state transition from Stopped to Ready: Stopped is terminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.Transition(tt.to)
			var te *TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("Transition() error = %v, want *TransitionError", err)
			}
			if te.From != tt.from || te.To != tt.to {
				t.Errorf("TransitionError = %v -> %v, want %v -> %v", te.From, te.To, tt.from, tt.to)
			}
			if got := err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}
