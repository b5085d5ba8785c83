// Package taphold resolves dual-function keys: tap for one key, hold
// for a modifier or layer. Resolution is time-based with a permissive
// hold, so rolling into another key while a tap-hold key is down counts
// as a hold immediately instead of waiting out the term.
//
// The resolver is driven with explicit timestamps; the engine feeds it
// event times and ticker times, which keeps the logic deterministic and
// testable.
package taphold

import (
	"sync"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

// Event is the resolver's verdict for a release.
type Event int

const (
	// EventNone: the release did not involve a pending tap-hold key.
	EventNone Event = iota
	// EventTap: released within the term; emit the tap key.
	EventTap
	// EventHoldEnd: the hold was already active; end it.
	EventHoldEnd
	// EventHoldPulse: released past the term before the ticker noticed;
	// start and end the hold in one go.
	EventHoldPulse
)

// Resolver tracks at most one pending tap-hold key.
type Resolver struct {
	mu        sync.Mutex
	term      time.Duration
	code      key.Code
	pressedAt time.Time
	active    bool
	holding   bool
}

// NewResolver creates a resolver with the given tapping term.
func NewResolver(term time.Duration) *Resolver {
	return &Resolver{term: term}
}

// Press registers a tap-hold key going down. It returns false when
// another tap-hold key is already pending; the caller should pass the
// key through unresolved rather than stack decisions.
func (r *Resolver) Press(c key.Code, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return false
	}
	r.code = c
	r.pressedAt = now
	r.active = true
	r.holding = false
	return true
}

// Pending returns the key awaiting resolution, if any.
func (r *Resolver) Pending() (key.Code, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return 0, false
	}
	return r.code, true
}

// Release resolves the pending key when c matches it.
func (r *Resolver) Release(c key.Code, now time.Time) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || c != r.code {
		return EventNone
	}
	r.active = false
	if r.holding {
		r.holding = false
		return EventHoldEnd
	}
	if now.Sub(r.pressedAt) < r.term {
		return EventTap
	}
	return EventHoldPulse
}

// Interrupt resolves a pending key as a hold because another key went
// down while it was held. Returns the key whose hold should begin.
func (r *Resolver) Interrupt(now time.Time) (key.Code, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.holding {
		return 0, false
	}
	r.holding = true
	return r.code, true
}

// Tick promotes a pending key to a hold once the term elapses. Returns
// the key whose hold should begin.
func (r *Resolver) Tick(now time.Time) (key.Code, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.holding || now.Sub(r.pressedAt) < r.term {
		return 0, false
	}
	r.holding = true
	return r.code, true
}

// Cycler rotates through symbols on repeated taps of one key, erasing
// the previous symbol each time. A pause longer than the term restarts
// the cycle.
type Cycler struct {
	mu      sync.Mutex
	syms    []rune
	term    time.Duration
	count   int
	lastTap time.Time
}

// NewCycler creates a cycler over syms with the given restart term.
func NewCycler(syms []rune, term time.Duration) *Cycler {
	return &Cycler{syms: syms, term: term}
}

// Tap advances the cycle. It returns the symbol to type and whether the
// previous symbol must be backspaced first.
func (c *Cycler) Tap(now time.Time) (rune, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count > 0 && now.Sub(c.lastTap) > c.term {
		c.count = 0
	}
	backspace := c.count > 0
	sym := c.syms[c.count%len(c.syms)]
	c.count++
	c.lastTap = now
	return sym, backspace
}
