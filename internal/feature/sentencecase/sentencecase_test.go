package sentencecase

import (
	"testing"

	"github.com/ebolton/keygate/internal/key"
)

// press feeds an unmodified key press and returns the capitalize decision.
func press(t *Tracker, c key.Code) bool {
	return t.ShouldCapitalize(c, false, false)
}

func typeWord(t *Tracker, codes ...key.Code) {
	for _, c := range codes {
		press(t, c)
	}
}

func TestCapitalizesAfterPeriodSpace(t *testing.T) {
	tr := New(true)

	typeWord(tr, key.H, key.I)
	press(tr, key.Dot)
	press(tr, key.Space)

	if !press(tr, key.T) {
		t.Error("letter after '. ' not capitalized")
	}
	// Only the first letter of the new sentence.
	if press(tr, key.H) {
		t.Error("second letter capitalized")
	}
}

func TestCapitalizesAfterShiftedEnders(t *testing.T) {
	for _, ender := range []key.Code{key.N1, key.Slash} {
		tr := New(true)
		typeWord(tr, key.O, key.K)
		tr.ShouldCapitalize(ender, true, false) // ! or ?
		press(tr, key.Space)
		if !press(tr, key.A) {
			t.Errorf("letter after shifted %v + space not capitalized", ender)
		}
	}
}

func TestShiftedDotIsNotAnEnder(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	tr.ShouldCapitalize(key.Dot, true, false) // '>'
	press(tr, key.Space)
	if press(tr, key.B) {
		t.Error("capitalized after '>' which does not end a sentence")
	}
}

func TestMultipleSpacesStayPrimed(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Space)
	press(tr, key.Space)
	if !press(tr, key.B) {
		t.Error("double space after period lost the prime")
	}
}

func TestQuotePreservesState(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Apostrophe)
	press(tr, key.Space)
	if !press(tr, key.B) {
		t.Error("closing quote after period broke the prime")
	}
}

func TestSymbolClearsPrime(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Space)
	press(tr, key.Comma)
	if press(tr, key.B) {
		t.Error("capitalized after a symbol cleared the sentence")
	}
}

func TestShortcutClearsState(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Space)
	// Ctrl+S mid-stream.
	if tr.ShouldCapitalize(key.S, false, true) {
		t.Error("capitalized a shortcut press")
	}
	if press(tr, key.B) {
		t.Error("capitalized after a shortcut cleared the state")
	}
}

func TestAbbreviationWithoutSpaceDoesNotPrime(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.E)
	press(tr, key.Dot)
	// "e.g": letter immediately after the period.
	if press(tr, key.G) {
		t.Error("capitalized mid-abbreviation")
	}
}

func TestDisabledTrackerNeverCapitalizes(t *testing.T) {
	tr := New(false)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Space)
	if press(tr, key.B) {
		t.Error("disabled tracker capitalized")
	}
}

func TestToggleResetsState(t *testing.T) {
	tr := New(true)
	typeWord(tr, key.A)
	press(tr, key.Dot)
	press(tr, key.Space)

	if on := tr.Toggle(); on {
		t.Fatal("Toggle should disable")
	}
	if on := tr.Toggle(); !on {
		t.Fatal("Toggle should re-enable")
	}
	// The prime from before the toggle must be gone.
	if press(tr, key.B) {
		t.Error("stale prime survived a toggle cycle")
	}
}
