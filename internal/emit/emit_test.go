package emit

import (
	"strings"
	"testing"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

func TestTapAndChord(t *testing.T) {
	rec := NewRecorder()
	e := New(rec, time.Microsecond)

	if err := e.Tap(key.A); err != nil {
		t.Fatalf("Tap: %v", err)
	}
	if err := e.Chord([]key.Code{key.LeftCtrl, key.LeftMeta}, key.Right); err != nil {
		t.Fatalf("Chord: %v", err)
	}

	want := []string{
		"down a", "up a",
		"down leftctrl", "down leftmeta",
		"down right", "up right",
		"up leftmeta", "up leftctrl",
	}
	got := rec.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTypePlainAndShifted(t *testing.T) {
	rec := NewRecorder()
	e := New(rec, time.Microsecond)

	if err := e.Type("a!"); err != nil {
		t.Fatalf("Type: %v", err)
	}

	want := []string{
		"down a", "up a",
		"down leftshift", "down 1", "up 1", "up leftshift",
	}
	got := rec.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTypeSkipsUntypeableRunes(t *testing.T) {
	rec := NewRecorder()
	e := New(rec, time.Microsecond)

	if err := e.Type("aßb"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	joined := strings.Join(rec.Events(), " ")
	if !strings.Contains(joined, "down a") || !strings.Contains(joined, "down b") {
		t.Errorf("surrounding characters lost: %v", rec.Events())
	}
	if len(rec.Events()) != 4 {
		t.Errorf("expected 4 events, got %v", rec.Events())
	}
}

func TestConfirmTapsEnter(t *testing.T) {
	rec := NewRecorder()
	e := New(rec, 0)

	if err := e.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	got := rec.Events()
	if len(got) != 2 || got[0] != "down enter" || got[1] != "up enter" {
		t.Errorf("events = %v", got)
	}
}

func TestTypePacing(t *testing.T) {
	rec := NewRecorder()
	interval := 5 * time.Millisecond
	e := New(rec, interval)

	start := time.Now()
	if err := e.Type("abcde"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	elapsed := time.Since(start)

	// Burst of 1, then 4 waits of ~5ms each.
	if elapsed < 4*interval-2*time.Millisecond {
		t.Errorf("typing finished too fast: %v", elapsed)
	}
}
