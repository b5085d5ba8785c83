// Package source produces key events for the engine. The real source is
// an evdev device grabbed for exclusive access; a replay source feeds
// recorded events for tests and layout debugging.
package source

import "github.com/ebolton/keygate/internal/key"

// Source delivers key transitions from an input device. Events is
// closed when the device goes away or the source is closed.
type Source interface {
	Events() <-chan key.Event
	Close() error
}
