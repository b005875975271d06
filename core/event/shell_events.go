package event

type shellEvent struct{}

func (shellEvent) Source() string { return SourceShell }

// ShellShown is published when the main window was displayed.
type ShellShown struct {
	shellEvent
	Title string
}

func NewShellShown(title string) *ShellShown {
	return &ShellShown{Title: title}
}

func (e *ShellShown) EventName() string {
	return "ShellShown"
}

// ShellFailed is published when the main window could not be built.
type ShellFailed struct {
	shellEvent
	LayoutPath string
	Error      error
}

func NewShellFailed(layoutPath string, err error) *ShellFailed {
	return &ShellFailed{LayoutPath: layoutPath, Error: err}
}

func (e *ShellFailed) EventName() string {
	return "ShellFailed"
}
