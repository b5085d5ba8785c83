// Package emit synthesizes keystrokes through a virtual output device.
//
// The Emitter is the daemon's only output path: plain remapped keys, macro
// sequences, and gated secret text all leave through it. Typed strings are
// paced with a rate limiter, the host-side analog of the firmware's
// send_string_with_delay: some applications drop keystrokes that arrive
// faster than their input queue drains.
package emit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ebolton/keygate/internal/key"
)

// DefaultTypeInterval is the pause between typed characters.
const DefaultTypeInterval = time.Millisecond

// Device is a raw key output sink. Implementations: the uinput virtual
// keyboard on linux, Recorder in tests.
type Device interface {
	KeyDown(c key.Code) error
	KeyUp(c key.Code) error
	Close() error
}

// Emitter turns high-level actions into device key transitions.
type Emitter struct {
	dev     Device
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an emitter over dev. interval paces Type; zero means
// DefaultTypeInterval.
func New(dev Device, interval time.Duration) *Emitter {
	if interval <= 0 {
		interval = DefaultTypeInterval
	}
	return &Emitter{
		dev:     dev,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  slog.With("component", "emit"),
	}
}

// Press sends a key-down transition.
func (e *Emitter) Press(c key.Code) error {
	return e.dev.KeyDown(c)
}

// Release sends a key-up transition.
func (e *Emitter) Release(c key.Code) error {
	return e.dev.KeyUp(c)
}

// Tap presses and releases a single key.
func (e *Emitter) Tap(c key.Code) error {
	if err := e.dev.KeyDown(c); err != nil {
		return err
	}
	return e.dev.KeyUp(c)
}

// TapN taps a key n times.
func (e *Emitter) TapN(c key.Code, n int) error {
	for i := 0; i < n; i++ {
		if err := e.Tap(c); err != nil {
			return err
		}
	}
	return nil
}

// Chord holds the modifiers, taps the key, releases the modifiers in
// reverse order.
func (e *Emitter) Chord(mods []key.Code, c key.Code) error {
	for _, m := range mods {
		if err := e.dev.KeyDown(m); err != nil {
			return err
		}
	}
	if err := e.Tap(c); err != nil {
		return err
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := e.dev.KeyUp(mods[i]); err != nil {
			return err
		}
	}
	return nil
}

// Type emits s as paced keystrokes. Characters with no key mapping are
// skipped with a debug log; the gate relies on the rest of the string still
// going out.
func (e *Emitter) Type(s string) error {
	ctx := context.Background()
	for _, r := range s {
		stroke, ok := strokeFor(r)
		if !ok {
			e.logger.Debug("untypeable character skipped", "rune", fmt.Sprintf("%q", r))
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if stroke.shift {
			if err := e.dev.KeyDown(key.LeftShift); err != nil {
				return err
			}
		}
		if err := e.Tap(stroke.code); err != nil {
			return err
		}
		if stroke.shift {
			if err := e.dev.KeyUp(key.LeftShift); err != nil {
				return err
			}
		}
	}
	return nil
}

// Confirm taps Enter. The gate calls it after each emitted secret.
func (e *Emitter) Confirm() error {
	return e.Tap(key.Enter)
}

// Close releases the output device.
func (e *Emitter) Close() error {
	return e.dev.Close()
}
