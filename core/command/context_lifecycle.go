package command

import "context"

// InitializeContext asks for the processing context to be built.
// Wait blocks the dispatcher until the context is ready or failed.
type InitializeContext struct {
	Wait bool
}

func (c *InitializeContext) CommandName() string {
	return "InitializeContext"
}

// ShutdownContext stops the processing context and its workers.
type ShutdownContext struct{}

func (c *ShutdownContext) CommandName() string {
	return "ShutdownContext"
}

// RunJob submits tasks to the processing context.
type RunJob struct {
	Name  string
	Tasks []func(ctx context.Context) error
}

func NewRunJob(name string, tasks ...func(ctx context.Context) error) *RunJob {
	return &RunJob{Name: name, Tasks: tasks}
}

func (c *RunJob) CommandName() string {
	return "RunJob"
}
