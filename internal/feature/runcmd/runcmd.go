// Package runcmd launches programs through the host's run dialog. The
// daemon only speaks keyboard, so "launching" means opening the dialog
// with Meta+R, typing the command line, and pressing Enter.
package runcmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

// Keys is the emitter subset the runner drives.
type Keys interface {
	Chord(mods []key.Code, c key.Code) error
	Type(s string) error
	Confirm() error
}

// Runner resolves command names against a table and types them into the
// run dialog.
type Runner struct {
	keys   Keys
	lookup func(name string) (string, bool)
	sleep  func(time.Duration)
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleep overrides the dialog-open delay function.
func WithSleep(fn func(time.Duration)) Option {
	return func(r *Runner) { r.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner. lookup maps a command name from a binding to the
// command line to type, typically a layout's Command method.
func New(keys Keys, lookup func(string) (string, bool), opts ...Option) *Runner {
	r := &Runner{
		keys:   keys,
		lookup: lookup,
		sleep:  time.Sleep,
		logger: slog.Default().With("component", "runcmd"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens the run dialog, waits for it to focus, and types the command
// registered under name.
func (r *Runner) Run(name string) error {
	cmd, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("no command registered as %q", name)
	}
	r.logger.Debug("running command", "name", name)

	if err := r.keys.Chord([]key.Code{key.LeftMeta}, key.R); err != nil {
		return err
	}
	// Give the dialog time to take keyboard focus.
	r.sleep(150 * time.Millisecond)

	if err := r.keys.Type(cmd); err != nil {
		return err
	}
	return r.keys.Confirm()
}
