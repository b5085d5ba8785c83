// Package vdesk tracks and switches Windows-style virtual desktops by
// replaying the keyboard gestures the host UI understands. The host never
// reports which desktop is active, so the tracker is the only source of
// truth; it persists across restarts in a small state file.
package vdesk

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

// Keys is the emitter subset the switcher drives.
type Keys interface {
	Press(key.Code) error
	Release(key.Code) error
	Tap(key.Code) error
}

// Switcher tracks the current desktop and emits switch gestures.
type Switcher struct {
	mu        sync.Mutex
	keys      Keys
	current   int
	max       int
	stateFile string
	sleep     func(time.Duration)
	logger    *slog.Logger
}

// Option configures a Switcher.
type Option func(*Switcher)

// WithStateFile persists the current desktop to path across restarts.
func WithStateFile(path string) Option {
	return func(s *Switcher) { s.stateFile = path }
}

// WithSleep overrides the inter-gesture delay function.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Switcher) { s.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Switcher) { s.logger = l }
}

// New creates a switcher assuming desktop 1 unless a state file says
// otherwise. max is the highest desktop number the host is configured for.
func New(keys Keys, max int, opts ...Option) *Switcher {
	s := &Switcher{
		keys:    keys,
		current: 1,
		max:     max,
		sleep:   time.Sleep,
		logger:  slog.Default().With("component", "vdesk"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.stateFile != "" {
		if n, err := readState(s.stateFile); err == nil && n >= 1 && n <= s.max {
			s.current = n
		}
	}
	return s
}

// Current returns the tracked desktop number.
func (s *Switcher) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset sets the tracker without emitting anything, for when the user
// moved desktops outside the keyboard and the tracker drifted.
func (s *Switcher) Reset(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > s.max {
		return fmt.Errorf("desktop %d out of range 1..%d", n, s.max)
	}
	s.current = n
	s.persist()
	return nil
}

// Switch moves to desktop n by holding Ctrl+Meta and tapping the arrow
// the needed number of times. Out-of-range and same-desktop targets are
// no-ops.
func (s *Switcher) Switch(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchLocked(n)
}

func (s *Switcher) switchLocked(n int) error {
	if n < 1 || n > s.max || n == s.current {
		return nil
	}
	s.logger.Debug("switching desktop", "from", s.current, "to", n)

	arrow := key.Right
	steps := n - s.current
	if steps < 0 {
		arrow = key.Left
		steps = -steps
	}

	if err := s.keys.Press(key.LeftCtrl); err != nil {
		return err
	}
	if err := s.keys.Press(key.LeftMeta); err != nil {
		return err
	}
	for i := 0; i < steps; i++ {
		if err := s.keys.Tap(arrow); err != nil {
			return err
		}
	}
	if err := s.keys.Release(key.LeftMeta); err != nil {
		return err
	}
	if err := s.keys.Release(key.LeftCtrl); err != nil {
		return err
	}

	s.current = n
	s.persist()
	return nil
}

// MoveWindow moves the focused window to desktop n and follows it. The
// host exposes no direct shortcut, so this walks the task-view context
// menu: Meta+Tab, menu key, down to "Move to", into the submenu, down to
// the target, Enter, Esc, then a normal switch.
func (s *Switcher) MoveWindow(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > s.max || n == s.current {
		return nil
	}
	s.logger.Debug("moving window", "from", s.current, "to", n)

	// The physical shift that selected this action may still be down and
	// would break Meta+Tab.
	if err := s.keys.Release(key.LeftShift); err != nil {
		return err
	}
	if err := s.keys.Press(key.LeftMeta); err != nil {
		return err
	}
	if err := s.keys.Tap(key.Tab); err != nil {
		return err
	}
	if err := s.keys.Release(key.LeftMeta); err != nil {
		return err
	}
	s.sleep(400 * time.Millisecond)

	if err := s.keys.Tap(key.Menu); err != nil {
		return err
	}
	s.sleep(100 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := s.keys.Tap(key.Down); err != nil {
			return err
		}
	}
	s.sleep(125 * time.Millisecond)
	if err := s.keys.Tap(key.Right); err != nil {
		return err
	}
	s.sleep(125 * time.Millisecond)

	// The submenu omits the current desktop, shifting later entries up.
	idx := n
	if n > s.current {
		idx = n - 1
	}
	for i := 1; i < idx; i++ {
		if err := s.keys.Tap(key.Down); err != nil {
			return err
		}
	}
	if err := s.keys.Tap(key.Enter); err != nil {
		return err
	}
	if err := s.keys.Tap(key.Esc); err != nil {
		return err
	}
	s.sleep(200 * time.Millisecond)

	return s.switchLocked(n)
}

func (s *Switcher) persist() {
	if s.stateFile == "" {
		return
	}
	if err := os.WriteFile(s.stateFile, []byte(strconv.Itoa(s.current)+"\n"), 0o644); err != nil {
		s.logger.Warn("persisting desktop state", "error", err)
	}
}

func readState(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
