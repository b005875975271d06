package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tsanomaly/domain/processing"
	"tsanomaly/infrastructure/logging"
)

func newTestContext(t *testing.T, master string) *Context {
	t.Helper()
	c, err := New(processing.DefaultConfig().SetMaster(master), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	if c.AppName() != "Anomaly detection in TS" {
		t.Errorf("AppName() = %v, want Anomaly detection in TS", c.AppName())
	}
	if c.Master() != "local[2]" {
		t.Errorf("Master() = %v, want local[2]", c.Master())
	}
	if c.Workers() != 2 {
		t.Errorf("Workers() = %d, want 2", c.Workers())
	}
	if !c.Target().Local {
		t.Error("Expected local target")
	}
	if c.StartTime().IsZero() {
		t.Error("StartTime should be set")
	}
	if c.Conf().Master != "local[2]" {
		t.Errorf("Conf().Master = %v, want local[2]", c.Conf().Master)
	}
}

func TestNew_InvalidMaster(t *testing.T) {
	_, err := New(processing.DefaultConfig().SetMaster("spark://cluster:7077"), nil)
	if !errors.Is(err, processing.ErrInvalidMaster) {
		t.Errorf("New() error = %v, want ErrInvalidMaster", err)
	}
}

func TestRunJob_RespectsWorkerSlots(t *testing.T) {
	c := newTestContext(t, "local[2]")

	var running, peak atomic.Int32
	task := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = task
	}

	if err := c.RunJob(context.Background(), "slots", tasks...); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	if got := peak.Load(); got < 1 || got > 2 {
		t.Errorf("peak concurrency = %d, want between 1 and 2", got)
	}

	stats := c.Stats()
	if stats.Jobs != 1 || stats.Tasks != 6 || stats.FailedTasks != 0 {
		t.Errorf("Stats() = %+v, want 1 job, 6 tasks, 0 failed", stats)
	}
}

func TestRunJob_FirstErrorWins(t *testing.T) {
	c := newTestContext(t, "local[2]")
	boom := errors.New("boom")

	err := c.RunJob(context.Background(), "failing",
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)

	if !errors.Is(err, boom) {
		t.Errorf("RunJob() error = %v, want boom", err)
	}
	if c.Stats().FailedTasks == 0 {
		t.Error("Expected failed task to be counted")
	}
}

func TestRunJob_PanicBecomesError(t *testing.T) {
	c := newTestContext(t, "local")

	err := c.RunJob(context.Background(), "panicky", func(ctx context.Context) error {
		panic("bad task")
	})

	if err == nil {
		t.Fatal("Expected error from panicking task")
	}
}

func TestRunJob_TaskLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	c, err := New(processing.DefaultConfig().SetMaster("local"), &Options{Logger: logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	err = c.RunJob(context.Background(), "score", func(ctx context.Context) error {
		logging.From(ctx).Info("scoring window")
		return nil
	}, func(ctx context.Context) error {
		panic("bad window")
	})
	if err == nil {
		t.Fatal("Expected error from panicking task")
	}

	var scored, panicked string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "scoring window"):
			scored = line
		case strings.Contains(line, "Task panicked"):
			panicked = line
		}
	}
	if !strings.Contains(scored, "job=score") || !strings.Contains(scored, "task=0") {
		t.Errorf("task log line = %q, want job and task attributes", scored)
	}
	if !strings.Contains(panicked, "job=score") || !strings.Contains(panicked, "task=1") {
		t.Errorf("panic log line = %q, want job and task attributes", panicked)
	}
	if !strings.Contains(scored, "master=local") {
		t.Errorf("task log line = %q, want context attributes", scored)
	}
}

func TestRunJob_CallerCancel(t *testing.T) {
	c := newTestContext(t, "local[2]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RunJob(ctx, "cancelled", func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunJob() error = %v, want context.Canceled", err)
	}
}

func TestRunJob_Observer(t *testing.T) {
	var gotName string
	var gotTasks int
	c, err := New(nil, &Options{
		OnJobFinished: func(name string, tasks int, d time.Duration, err error) {
			gotName = name
			gotTasks = tasks
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Stop()

	noop := func(ctx context.Context) error { return nil }
	if err := c.RunJob(context.Background(), "observed", noop, noop, noop); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}

	if gotName != "observed" || gotTasks != 3 {
		t.Errorf("observer got (%q, %d), want (observed, 3)", gotName, gotTasks)
	}
}

func TestStop_RejectsNewJobs(t *testing.T) {
	c := newTestContext(t, "local[2]")
	c.Stop()
	c.Stop() // idempotent

	if !c.IsStopped() {
		t.Error("IsStopped() = false after Stop")
	}

	err := c.RunJob(context.Background(), "late", func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrContextStopped) {
		t.Errorf("RunJob() error = %v, want ErrContextStopped", err)
	}
}

func TestStop_CancelsRunningJob(t *testing.T) {
	c := newTestContext(t, "local[2]")

	started := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- c.RunJob(context.Background(), "long", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	c.Stop()

	select {
	case err := <-result:
		if !errors.Is(err, ErrContextStopped) {
			t.Errorf("RunJob() error = %v, want ErrContextStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for job to stop")
	}
}

func TestParallelize_PreservesOrder(t *testing.T) {
	c := newTestContext(t, "local[2]")

	items := []int{5, 1, 4, 2, 3}
	got, err := Parallelize(context.Background(), c, "square", items, func(ctx context.Context, v int) (int, error) {
		time.Sleep(time.Duration(v) * time.Millisecond)
		return v * v, nil
	})
	if err != nil {
		t.Fatalf("Parallelize() error = %v", err)
	}

	want := []int{25, 1, 16, 4, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestParallelize_Error(t *testing.T) {
	c := newTestContext(t, "local[2]")
	bad := errors.New("bad item")

	_, err := Parallelize(context.Background(), c, "fail", []string{"a", "b"}, func(ctx context.Context, s string) (int, error) {
		if s == "b" {
			return 0, bad
		}
		return len(s), nil
	})
	if !errors.Is(err, bad) {
		t.Errorf("Parallelize() error = %v, want bad item", err)
	}
}
