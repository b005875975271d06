// Package processing defines the configuration of the local processing
// context: an application name and an execution target ("master").
package processing

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

const (
	// DefaultAppName is the application name registered with the context.
	DefaultAppName = "Anomaly detection in TS"
	// DefaultMaster runs locally with two worker slots.
	DefaultMaster = "local[2]"
)

// ErrInvalidMaster is returned for execution targets that cannot be run.
var ErrInvalidMaster = errors.New("invalid master")

// ErrEmptyAppName is returned when the application name is blank.
var ErrEmptyAppName = errors.New("application name must not be empty")

// Config describes how the processing context is built.
type Config struct {
	AppName string
	Master  string
}

// DefaultConfig returns the fixed configuration the application boots with.
func DefaultConfig() *Config {
	return &Config{
		AppName: DefaultAppName,
		Master:  DefaultMaster,
	}
}

// SetAppName sets the application name and returns the config for chaining.
func (c *Config) SetAppName(name string) *Config {
	c.AppName = name
	return c
}

// SetMaster sets the execution target and returns the config for chaining.
func (c *Config) SetMaster(master string) *Config {
	c.Master = master
	return c
}

// Validate checks the name and decodes the master.
func (c *Config) Validate() (Target, error) {
	if strings.TrimSpace(c.AppName) == "" {
		return Target{}, ErrEmptyAppName
	}
	return ParseMaster(c.Master)
}

// Target is the decoded form of a master string.
type Target struct {
	// Local is always true; remote cluster managers are not supported.
	Local bool
	// Workers is the number of tasks that may run at the same time.
	Workers int
	// Wildcard is set for local[*].
	Wildcard bool
}

// String renders the target back into master form.
func (t Target) String() string {
	if t.Wildcard {
		return "local[*]"
	}
	if t.Workers == 1 {
		return "local"
	}
	return fmt.Sprintf("local[%d]", t.Workers)
}

// ParseMaster decodes "local", "local[N]" and "local[*]".
func ParseMaster(master string) (Target, error) {
	m := strings.TrimSpace(master)

	if m == "local" {
		return Target{Local: true, Workers: 1}, nil
	}

	if !strings.HasPrefix(m, "local[") || !strings.HasSuffix(m, "]") {
		return Target{}, fmt.Errorf("%w: %q (only local, local[N] and local[*] are supported)", ErrInvalidMaster, master)
	}

	inner := m[len("local[") : len(m)-1]
	if inner == "*" {
		return Target{Local: true, Workers: runtime.NumCPU(), Wildcard: true}, nil
	}

	// Digits only: Atoi alone would accept a sign.
	if inner == "" || strings.TrimLeft(inner, "0123456789") != "" {
		return Target{}, fmt.Errorf("%w: %q: worker count is not a number", ErrInvalidMaster, master)
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: worker count is not a number", ErrInvalidMaster, master)
	}
	if n <= 0 {
		return Target{}, fmt.Errorf("%w: %q: worker count must be positive", ErrInvalidMaster, master)
	}

	return Target{Local: true, Workers: n}, nil
}
