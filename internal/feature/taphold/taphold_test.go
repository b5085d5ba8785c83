package taphold

import (
	"testing"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const term = 200 * time.Millisecond

func TestQuickReleaseIsTap(t *testing.T) {
	r := NewResolver(term)
	if !r.Press(key.A, t0) {
		t.Fatal("Press not accepted")
	}
	if ev := r.Release(key.A, t0.Add(50*time.Millisecond)); ev != EventTap {
		t.Errorf("event = %v, want EventTap", ev)
	}
	if _, ok := r.Pending(); ok {
		t.Error("still pending after release")
	}
}

func TestTickPromotesToHold(t *testing.T) {
	r := NewResolver(term)
	r.Press(key.A, t0)

	if _, ok := r.Tick(t0.Add(100 * time.Millisecond)); ok {
		t.Error("promoted to hold before the term")
	}
	c, ok := r.Tick(t0.Add(term))
	if !ok || c != key.A {
		t.Fatalf("Tick = %v %v, want key.A hold", c, ok)
	}
	// Second tick must not restart the hold.
	if _, ok := r.Tick(t0.Add(2 * term)); ok {
		t.Error("Tick fired twice for one hold")
	}
	if ev := r.Release(key.A, t0.Add(3*term)); ev != EventHoldEnd {
		t.Errorf("event = %v, want EventHoldEnd", ev)
	}
}

func TestInterruptIsPermissiveHold(t *testing.T) {
	r := NewResolver(term)
	r.Press(key.A, t0)

	// Another key goes down 30ms in: rolling press, treat as hold now.
	c, ok := r.Interrupt(t0.Add(30 * time.Millisecond))
	if !ok || c != key.A {
		t.Fatalf("Interrupt = %v %v, want key.A hold", c, ok)
	}
	if ev := r.Release(key.A, t0.Add(60*time.Millisecond)); ev != EventHoldEnd {
		t.Errorf("event = %v, want EventHoldEnd", ev)
	}
}

func TestLateReleaseWithoutTickIsHoldPulse(t *testing.T) {
	r := NewResolver(term)
	r.Press(key.A, t0)
	if ev := r.Release(key.A, t0.Add(2*term)); ev != EventHoldPulse {
		t.Errorf("event = %v, want EventHoldPulse", ev)
	}
}

func TestUnrelatedReleaseIgnored(t *testing.T) {
	r := NewResolver(term)
	r.Press(key.A, t0)
	if ev := r.Release(key.B, t0.Add(time.Millisecond)); ev != EventNone {
		t.Errorf("event = %v, want EventNone for unrelated key", ev)
	}
	if _, ok := r.Pending(); !ok {
		t.Error("pending key lost on unrelated release")
	}
}

func TestSecondPressRejectedWhilePending(t *testing.T) {
	r := NewResolver(term)
	r.Press(key.A, t0)
	if r.Press(key.B, t0.Add(time.Millisecond)) {
		t.Error("second tap-hold press accepted while one is pending")
	}
}

func TestCyclerRotatesAndBackspaces(t *testing.T) {
	c := NewCycler([]rune{';', ':', '#'}, term)

	sym, back := c.Tap(t0)
	if sym != ';' || back {
		t.Errorf("first tap = %q back=%v, want ';' false", sym, back)
	}
	sym, back = c.Tap(t0.Add(50 * time.Millisecond))
	if sym != ':' || !back {
		t.Errorf("second tap = %q back=%v, want ':' true", sym, back)
	}
	sym, back = c.Tap(t0.Add(100 * time.Millisecond))
	if sym != '#' || !back {
		t.Errorf("third tap = %q back=%v, want '#' true", sym, back)
	}
	// Wraps around.
	sym, _ = c.Tap(t0.Add(150 * time.Millisecond))
	if sym != ';' {
		t.Errorf("fourth tap = %q, want ';'", sym)
	}
}

func TestCyclerRestartsAfterPause(t *testing.T) {
	c := NewCycler([]rune{';', ':'}, term)
	c.Tap(t0)
	sym, back := c.Tap(t0.Add(time.Second))
	if sym != ';' || back {
		t.Errorf("tap after pause = %q back=%v, want ';' false", sym, back)
	}
}
