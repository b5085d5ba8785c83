// Package sentencecase auto-capitalizes the first letter after a
// sentence ends. It watches the typed stream for a sentence-ending
// punctuation mark followed by a space and asks the engine to shift the
// next letter. Keyboard shortcuts and navigation clear the tracker so a
// Ctrl+S mid-sentence never triggers a stray capital.
package sentencecase

import (
	"sync"

	"github.com/ebolton/keygate/internal/key"
)

type state int

const (
	// stateInit: nothing pending.
	stateInit state = iota
	// stateWord: inside a sentence.
	stateWord
	// stateEnded: a sentence-ending mark was typed.
	stateEnded
	// statePrimed: ending mark then space; the next letter capitalizes.
	statePrimed
)

// Tracker decides when a typed letter should be capitalized.
type Tracker struct {
	mu      sync.Mutex
	enabled bool
	st      state
}

// New creates a tracker, enabled or not.
func New(enabled bool) *Tracker {
	return &Tracker{enabled: enabled}
}

// Enabled reports whether the feature is on.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Toggle flips the feature and returns the new state. Enabling starts
// from a clean slate.
func (t *Tracker) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = !t.enabled
	t.st = stateInit
	return t.enabled
}

// Clear resets the tracker, for layer changes and focus moves the
// stream cannot see.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = stateInit
}

// ShouldCapitalize observes one key press and reports whether it should
// be typed shifted. shift is the current shift state; otherMods is true
// when any non-shift modifier is down, which marks the press as a
// shortcut rather than prose.
func (t *Tracker) ShouldCapitalize(c key.Code, shift, otherMods bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return false
	}
	if otherMods {
		t.st = stateInit
		return false
	}

	switch classify(c, shift) {
	case classLetter:
		primed := t.st == statePrimed
		t.st = stateWord
		return primed
	case classEnder:
		t.st = stateEnded
	case classSpace:
		if t.st == stateEnded || t.st == statePrimed {
			t.st = statePrimed
		} else {
			t.st = stateInit
		}
	case classSymbol:
		t.st = stateInit
	case classQuote:
		// Quotes wrap sentences without breaking them; keep state.
	default:
		t.st = stateInit
	}
	return false
}

type class int

const (
	classOther class = iota
	classLetter
	classEnder
	classSymbol
	classSpace
	classQuote
)

func classify(c key.Code, shift bool) class {
	switch {
	case key.IsLetter(c):
		return classLetter
	case c == key.Dot:
		// Period ends a sentence; shifted it is '>'.
		if shift {
			return classSymbol
		}
		return classEnder
	case c == key.N1, c == key.Slash:
		// Shifted these are '!' and '?'.
		if shift {
			return classEnder
		}
		return classSymbol
	case c == key.Space:
		return classSpace
	case c == key.Apostrophe:
		return classQuote
	case c >= key.N2 && c <= key.N0,
		c == key.Minus, c == key.Equal,
		c == key.LeftBrace, c == key.RightBrace,
		c == key.Backslash, c == key.Semicolon,
		c == key.Grave, c == key.Comma:
		return classSymbol
	}
	return classOther
}
