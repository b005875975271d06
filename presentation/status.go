package presentation

import (
	"fmt"
	"sync"

	"tsanomaly/core/state"
)

// Status widget IDs looked up in the main window layout.
const (
	StatusLabelID    = "context.status"
	StatusProgressID = "context.progress"
	AppLabelID       = "header.app"
)

// contextStatus tracks what the status bar shows about the processing context.
type contextStatus struct {
	mu      sync.Mutex
	state   state.ContextState
	appName string
	master  string
	workers int
	err     error
	jobs    int
}

// accepts reports whether st moves the status forward. Events can arrive
// after a snapshot already reflected them; those must not roll it back.
func (s *contextStatus) accepts(st state.ContextState) bool {
	return s.state == st || s.state == state.ContextUninitialized || s.state.CanTransitionTo(st)
}

func (s *contextStatus) setState(st state.ContextState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accepts(st) {
		s.state = st
	}
}

func (s *contextStatus) setReady(appName, master string, workers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(state.ContextReady) {
		return
	}
	s.state = state.ContextReady
	s.appName, s.master, s.workers = appName, master, workers
}

func (s *contextStatus) setFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(state.ContextFailed) {
		return
	}
	s.state = state.ContextFailed
	s.err = err
}

// restore replaces the state with a snapshot taken from the holder.
// Context details are kept unless the snapshot carries new ones.
func (s *contextStatus) restore(st state.ContextState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.err = err
}

func (s *contextStatus) jobDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs++
}

// text renders the status line.
func (s *contextStatus) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case state.ContextInitializing:
		return "Processing context: Initializing…"
	case state.ContextReady:
		line := fmt.Sprintf("Processing context: Ready (%s, %d workers)", s.master, s.workers)
		if s.jobs > 0 {
			line += fmt.Sprintf(", %d jobs run", s.jobs)
		}
		return line
	case state.ContextFailed:
		if s.err != nil {
			return "Processing context: Failed: " + s.err.Error()
		}
		return "Processing context: Failed"
	default:
		return "Processing context: " + s.state.String()
	}
}

// progress is 1 once the context has settled, 0 before.
func (s *contextStatus) progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsSettled() {
		return 1
	}
	return 0
}
