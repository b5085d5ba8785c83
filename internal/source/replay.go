package source

import "github.com/ebolton/keygate/internal/key"

// Replay is a Source fed programmatically.
type Replay struct {
	ch chan key.Event
}

// NewReplay creates a replay source.
func NewReplay() *Replay {
	return &Replay{ch: make(chan key.Event, 64)}
}

// Events implements Source.
func (r *Replay) Events() <-chan key.Event { return r.ch }

// Feed queues one event.
func (r *Replay) Feed(ev key.Event) { r.ch <- ev }

// Tap queues a press and release of c.
func (r *Replay) Tap(c key.Code) {
	r.Feed(key.Event{Code: c, Pressed: true})
	r.Feed(key.Event{Code: c, Pressed: false})
}

// Close implements Source.
func (r *Replay) Close() error {
	close(r.ch)
	return nil
}
