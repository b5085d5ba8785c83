// Package gate implements the PIN-gated secrets state machine.
//
// The gate is exactly one of locked, capturing (PIN digits being buffered),
// or unlocked. Keystroke handlers drive all transitions; a polled Tick
// enforces the inactivity auto-lock. Every invalid input (buffer overflow,
// wrong PIN, secret access while locked, out-of-range index) is rejected
// silently. Nothing observable distinguishes a failed PIN from a cancelled
// one, and a secret-bound key while locked behaves like a dead key.
package gate

import (
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultLockTimeout is the inactivity window before auto-lock.
	DefaultLockTimeout = 300000 * time.Millisecond

	// DefaultMaxPINLength caps the capture buffer. Digits past the cap are
	// dropped; capture mode stays active until submit or cancel.
	DefaultMaxPINLength = 32
)

// Status is the externally visible gate state, consumed by the status
// indicator.
type Status string

const (
	StatusLocked    Status = "locked"
	StatusCapturing Status = "capturing"
	StatusUnlocked  Status = "unlocked"
)

// Table resolves a secret by its dense index.
type Table interface {
	// Secret returns the secret value at index i. ok is false when i is out
	// of range.
	Secret(i int) (value string, ok bool)
	// Name returns the secret's configured name for audit purposes.
	Name(i int) string
}

// Typer emits text as synthesized keystrokes, then a single confirm action.
// It is the gate's only output path.
type Typer interface {
	Type(s string) error
	Confirm() error
}

// Observer receives gate transitions. Implementations must not call back
// into the gate.
type Observer interface {
	Unlocked()
	Locked(reason string)
	AttemptFailed()
	SecretEmitted(name string)
	AccessDenied(index int)
}

// Config parameterizes a gate.
type Config struct {
	// PIN is the reference PIN, digits only. Compared in constant time.
	PIN string
	// LockTimeout is the auto-lock window; zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// MaxPINLength bounds the capture buffer; zero means DefaultMaxPINLength.
	MaxPINLength int
}

type state int

const (
	locked state = iota
	capturing
	unlocked
)

// Gate is the authentication state machine controlling secret access.
//
// The engine loop is the only writer of keystroke-driven transitions, but
// LockNow and Status are called from API handler goroutines, so all state is
// mutex-guarded.
type Gate struct {
	mu         sync.Mutex
	state      state
	buf        []byte
	unlockedAt time.Time

	pin      string
	timeout  time.Duration
	maxPIN   int
	secrets  Table
	typer    Typer
	observer Observer
	logger   *slog.Logger
}

// New creates a gate in the locked state.
func New(cfg Config, secrets Table, typer Typer, opts ...Option) *Gate {
	g := &Gate{
		pin:     cfg.PIN,
		timeout: cfg.LockTimeout,
		maxPIN:  cfg.MaxPINLength,
		secrets: secrets,
		typer:   typer,
		logger:  slog.With("component", "gate"),
	}
	if g.timeout <= 0 {
		g.timeout = DefaultLockTimeout
	}
	if g.maxPIN <= 0 {
		g.maxPIN = DefaultMaxPINLength
	}
	g.buf = make([]byte, 0, g.maxPIN)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Option configures a gate.
type Option func(*Gate)

// WithObserver attaches a transition observer (audit logging).
func WithObserver(o Observer) Option {
	return func(g *Gate) { g.observer = o }
}

// WithLogger overrides the default component logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// RequestUnlock toggles the gate mode. Locked begins PIN capture (re-entry
// from capture resets any stale partial buffer); unlocked locks immediately.
// It never fails.
func (g *Gate) RequestUnlock() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == unlocked {
		g.lockLocked("toggle")
		return
	}
	g.state = capturing
	g.buf = g.buf[:0]
	g.logger.Debug("pin capture started")
}

// HandleCaptureKey processes one classified input while capturing. The
// return value reports whether the gate consumed the event; unrecognized
// inputs pass through so other layers may act on them. Calling it outside
// capture mode consumes nothing.
func (g *Gate) HandleCaptureKey(in Input) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != capturing {
		return false
	}

	switch in.Kind {
	case Digit:
		if len(g.buf) < g.maxPIN {
			g.buf = append(g.buf, in.Digit)
		}
		// A full buffer drops the digit but stays in capture mode.
		return true

	case Submit:
		if g.pinMatches() {
			g.state = unlocked
			g.unlockedAt = time.Now()
			g.buf = g.buf[:0]
			g.logger.Info("unlocked")
			if g.observer != nil {
				g.observer.Unlocked()
			}
		} else {
			g.state = locked
			g.buf = g.buf[:0]
			// Indistinguishable from cancel on purpose: no user-visible
			// failure signal beyond the indicator reverting to locked.
			g.logger.Info("locked", "reason", "bad pin")
			if g.observer != nil {
				g.observer.AttemptFailed()
			}
		}
		return true

	case Cancel:
		g.lockLocked("cancel")
		return true
	}

	return false
}

// HandleSecretAccess handles a secret-access keystroke for the secret at
// index i. While unlocked it types the secret's full text followed by a
// confirm action; the unlock timestamp is not refreshed. While locked or
// capturing the event is swallowed with no emission. Always reports the
// event as consumed.
func (g *Gate) HandleSecretAccess(i int) bool {
	g.mu.Lock()
	if g.state != unlocked {
		g.mu.Unlock()
		if g.observer != nil {
			g.observer.AccessDenied(i)
		}
		return true
	}
	value, ok := g.secrets.Secret(i)
	name := g.secrets.Name(i)
	g.mu.Unlock()

	if !ok {
		// Out-of-range index: consumed, no emission.
		return true
	}

	// Emission happens outside the lock; the typer may pace keystrokes.
	if err := g.typer.Type(value); err != nil {
		g.logger.Error("secret emission failed", "secret", name, "error", err)
		return true
	}
	if err := g.typer.Confirm(); err != nil {
		g.logger.Error("confirm emission failed", "secret", name, "error", err)
		return true
	}
	if g.observer != nil {
		g.observer.SecretEmitted(name)
	}
	return true
}

// Tick enforces the auto-lock timeout. The caller polls it from the engine
// loop; precision is bounded by the poll interval, and a bounded-late lock
// is acceptable.
func (g *Gate) Tick(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == unlocked && now.Sub(g.unlockedAt) > g.timeout {
		g.lockLocked("timeout")
	}
}

// LockNow forces the locked state regardless of current state. Bound to the
// host lock shortcut and the control API.
func (g *Gate) LockNow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lockLocked("explicit")
}

// Status returns the current gate state for indicator rendering. Pure read.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case capturing:
		return StatusCapturing
	case unlocked:
		return StatusUnlocked
	default:
		return StatusLocked
	}
}

// Capturing reports whether PIN capture is active.
func (g *Gate) Capturing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == capturing
}

// lockLocked transitions to locked and clears all transient state. Caller
// holds g.mu.
func (g *Gate) lockLocked(reason string) {
	was := g.state
	g.state = locked
	g.buf = g.buf[:0]
	g.unlockedAt = time.Time{}
	if was != locked {
		g.logger.Info("locked", "reason", reason)
		if g.observer != nil {
			g.observer.Locked(reason)
		}
	}
}

// pinMatches compares the capture buffer against the reference PIN without
// early exit on content. Length still gates the comparison: an empty buffer
// never matches a non-empty PIN.
func (g *Gate) pinMatches() bool {
	if len(g.pin) == 0 || len(g.buf) != len(g.pin) {
		return false
	}
	return subtle.ConstantTimeCompare(g.buf, []byte(g.pin)) == 1
}
