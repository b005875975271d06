package presentation

import (
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"

	"tsanomaly/core/event"
	"tsanomaly/core/state"
	"tsanomaly/domain/layout"
)

// DefaultTitle is the title of the main window.
const DefaultTitle = "Anomaly Detection in Time Series"

// Shell loads the main window layout and shows it.
type Shell struct {
	app        fyne.App
	resources  fs.FS
	layoutPath string
	title      string
	loader     *layout.Loader
	bridge     *UIEventBridge
	logger     *slog.Logger

	// do runs UI updates on the Fyne main goroutine.
	do func(func())

	mu          sync.Mutex
	windowState state.WindowState
	window      fyne.Window
	view        *View
	status      contextStatus
}

// ShellConfig holds configuration for Shell.
type ShellConfig struct {
	App        fyne.App
	Resources  fs.FS
	LayoutPath string
	Title      string
	Loader     *layout.Loader
	Bridge     *UIEventBridge
	Logger     *slog.Logger
}

// NewShell creates a new desktop shell. Nothing is loaded until Launch.
func NewShell(cfg *ShellConfig) *Shell {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.Loader == nil {
		cfg.Loader = layout.NewLoader()
	}

	s := &Shell{
		app:        cfg.App,
		resources:  cfg.Resources,
		layoutPath: cfg.LayoutPath,
		title:      cfg.Title,
		loader:     cfg.Loader,
		bridge:     cfg.Bridge,
		logger:     cfg.Logger,
		do:         fyne.Do,
	}
	s.setupEventCallbacks()
	return s
}

// Launch loads the layout, builds it into a window titled with the shell's
// title and shows it. If the layout cannot be loaded or built, one diagnostic
// is logged, no window is created and the error is returned to the caller.
func (s *Shell) Launch() (fyne.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.window != nil {
		return s.window, nil
	}

	doc, err := s.loader.Load(s.resources, s.layoutPath)
	if err != nil {
		return nil, s.fail(err)
	}

	view, err := Build(doc)
	if err != nil {
		return nil, s.fail(err)
	}

	w := s.app.NewWindow(s.title)
	w.SetContent(view.Root)
	if doc.Width > 0 && doc.Height > 0 {
		w.Resize(fyne.NewSize(doc.Width, doc.Height))
	}
	w.SetMaster()
	w.Show()

	s.window = w
	s.view = view
	s.windowState = state.WindowShown
	s.syncStatus()
	s.refreshStatusLocked()

	s.logger.Info("Main window shown", "title", s.title, "layout", s.layoutPath, "nodes", doc.Count())
	if s.bridge != nil {
		s.bridge.Publish(event.NewShellShown(s.title))
	}
	return w, nil
}

func (s *Shell) fail(err error) error {
	s.windowState = state.WindowFailed
	s.logger.Error("Main window layout could not be loaded", "layout", s.layoutPath, "error", err)
	if s.bridge != nil {
		s.bridge.Publish(event.NewShellFailed(s.layoutPath, err))
	}
	return fmt.Errorf("launch main window: %w", err)
}

// State reports whether the window was shown.
func (s *Shell) State() state.WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowState
}

// Window returns the main window, or nil if it was never shown.
func (s *Shell) Window() fyne.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// View returns the built layout, or nil if the window was never shown.
func (s *Shell) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Shell) setupEventCallbacks() {
	if s.bridge == nil {
		return
	}

	s.bridge.SetCallbacks(&UICallbacks{
		OnContextStateChanged: func(oldState, newState state.ContextState) {
			s.logger.Debug("Context state changed", "from", oldState, "to", newState)
			// Ready and Failed carry details in their own events
			if newState == state.ContextReady || newState == state.ContextFailed {
				return
			}
			s.status.setState(newState)
			s.refreshStatus()
		},
		OnContextReady: func(appName, master string, workers int) {
			s.status.setReady(appName, master, workers)
			s.refreshStatus()
		},
		OnContextFailed: func(err error) {
			s.status.setFailed(err)
			s.refreshStatus()
		},
		OnJobFinished: func(name string, tasks int, d time.Duration, err error) {
			s.status.jobDone()
			s.refreshStatus()
		},
	})
}

// syncStatus seeds the status from the holder, covering events published
// before the bridge subscribed.
func (s *Shell) syncStatus() {
	if s.bridge == nil {
		return
	}
	st, pc, err := s.bridge.ContextSnapshot()
	switch {
	case st == state.ContextUninitialized:
	case pc != nil:
		s.status.restore(st, nil)
		s.status.setReady(pc.AppName(), pc.Master(), pc.Workers())
	case st == state.ContextFailed:
		s.status.restore(st, err)
	default:
		s.status.restore(st, nil)
	}
}

// refreshStatus pushes the status to the window on the UI goroutine.
func (s *Shell) refreshStatus() {
	s.do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.refreshStatusLocked()
	})
}

func (s *Shell) refreshStatusLocked() {
	if s.view == nil {
		return
	}
	if label := s.view.Label(StatusLabelID); label != nil {
		label.SetText(s.status.text())
	}
	if bar := s.view.ProgressBar(StatusProgressID); bar != nil {
		bar.SetValue(s.status.progress())
	}
	if label := s.view.Label(AppLabelID); label != nil {
		s.status.mu.Lock()
		appName := s.status.appName
		s.status.mu.Unlock()
		label.SetText(appName)
	}
}
