package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ebolton/keygate/internal/emit"
	"github.com/ebolton/keygate/internal/feature/metalayer"
	"github.com/ebolton/keygate/internal/feature/runcmd"
	"github.com/ebolton/keygate/internal/feature/sentencecase"
	"github.com/ebolton/keygate/internal/feature/taphold"
	"github.com/ebolton/keygate/internal/feature/vdesk"
	"github.com/ebolton/keygate/internal/gate"
	"github.com/ebolton/keygate/internal/key"
	"github.com/ebolton/keygate/internal/layout"
	"github.com/ebolton/keygate/internal/secrets"
	"github.com/ebolton/keygate/internal/source"
	"github.com/ebolton/keygate/internal/trace"
)

const testLayout = `
layers:
  - name: base
    default: true
    keys:
      capslock: layer:nav
      a: tap-hold:a/leftmeta
      d: tap-hold:d/layer:nav
      semicolon: "cycle:;:"
      f9: pin-entry
      f1: secret:0
      f2: secret:9
      menu: meta-layer
      f10: sentence-case-toggle
  - name: nav
    keys:
      h: key:left
      l: key:right
  - name: meta
    keys:
      "2": vdesk:2
      r: run:terminal
commands:
  terminal: wt.exe
`

const term = 200 * time.Millisecond

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	eng  *Engine
	rec  *emit.Recorder
	gate *gate.Gate
	now  time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	l, err := layout.Compile([]byte(testLayout))
	if err != nil {
		t.Fatalf("compiling layout: %v", err)
	}

	rec := emit.NewRecorder()
	em := emit.New(rec, time.Nanosecond)

	table := secrets.NewTable([]string{"github"}, []string{"hunter2"})
	g := gate.New(gate.Config{PIN: "1234", LockTimeout: 5 * time.Minute, MaxPINLength: 32}, table, em, gate.WithLogger(logger))

	noSleep := func(time.Duration) {}
	eng := New(Deps{
		Source:       source.NewReplay(),
		Emitter:      em,
		Layout:       l,
		Gate:         g,
		VDesk:        vdesk.New(em, 9, vdesk.WithSleep(noSleep), vdesk.WithLogger(logger)),
		Runner:       runcmd.New(em, l.Command, runcmd.WithSleep(noSleep), runcmd.WithLogger(logger)),
		Meta:         metalayer.New(em, g, "meta", logger),
		SentenceCase: sentencecase.New(true),
		TapHold:      taphold.NewResolver(term),
		TapHoldTerm:  term,
		Trace:        trace.NewBuffer(128),
		Logger:       logger,
	})
	return &harness{eng: eng, rec: rec, gate: g, now: t0}
}

// press and release advance the harness clock a little per event so
// tap-hold keys resolve as taps unless a test says otherwise.
func (h *harness) press(c key.Code) {
	h.now = h.now.Add(5 * time.Millisecond)
	h.eng.handle(key.Event{Code: c, Pressed: true}, h.now)
}

func (h *harness) release(c key.Code) {
	h.now = h.now.Add(5 * time.Millisecond)
	h.eng.handle(key.Event{Code: c, Pressed: false}, h.now)
}

func (h *harness) tap(c key.Code) {
	h.press(c)
	h.release(c)
}

func (h *harness) enterPIN(pin string) {
	for _, d := range pin {
		switch d {
		case '1':
			h.tap(key.N1)
		case '2':
			h.tap(key.N2)
		case '3':
			h.tap(key.N3)
		case '4':
			h.tap(key.N4)
		case '9':
			h.tap(key.N9)
		}
	}
}

func (h *harness) unlock(t *testing.T) {
	t.Helper()
	h.tap(key.F9)
	h.enterPIN("1234")
	h.tap(key.Enter)
	if h.gate.Status() != gate.StatusUnlocked {
		t.Fatalf("gate = %v after correct PIN, want unlocked", h.gate.Status())
	}
	h.rec.Reset()
}

func TestUnboundKeyPassesThrough(t *testing.T) {
	h := newHarness(t)
	h.tap(key.Z)

	want := []string{"down z", "up z"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestMomentaryLayerRemap(t *testing.T) {
	h := newHarness(t)

	h.press(key.CapsLock)
	h.tap(key.H)
	h.release(key.CapsLock)
	// Back on base: h passes through.
	h.tap(key.H)

	want := []string{"down left", "up left", "down h", "up h"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestPINCaptureEmitsNothing(t *testing.T) {
	h := newHarness(t)

	h.tap(key.F9)
	if h.gate.Status() != gate.StatusCapturing {
		t.Fatalf("gate = %v, want capturing", h.gate.Status())
	}
	h.enterPIN("1234")
	h.tap(key.Enter)

	if h.gate.Status() != gate.StatusUnlocked {
		t.Errorf("gate = %v, want unlocked", h.gate.Status())
	}
	if got := h.rec.Events(); len(got) != 0 {
		t.Errorf("PIN entry leaked to the host: %v", got)
	}
}

func TestWrongPINStaysSilent(t *testing.T) {
	h := newHarness(t)

	h.tap(key.F9)
	h.enterPIN("9999")
	h.tap(key.Enter)

	if h.gate.Status() != gate.StatusLocked {
		t.Errorf("gate = %v, want locked", h.gate.Status())
	}
	if got := h.rec.Events(); len(got) != 0 {
		t.Errorf("failed attempt leaked to the host: %v", got)
	}
}

func TestNonCaptureKeysPassThroughDuringCapture(t *testing.T) {
	h := newHarness(t)
	h.tap(key.F9)
	h.tap(key.Z)

	want := []string{"down z", "up z"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
	if h.gate.Status() != gate.StatusCapturing {
		t.Errorf("pass-through key ended capture")
	}
}

func TestSecretEmissionWhenUnlocked(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)

	h.tap(key.F1)

	got := strings.Join(h.rec.Events(), " ")
	for _, frag := range []string{"down h", "down u", "down n", "down t", "down e", "down r", "down 2", "down enter"} {
		if !strings.Contains(got, frag) {
			t.Errorf("secret emission missing %q: %v", frag, got)
		}
	}
}

func TestSecretAccessDeniedWhileLocked(t *testing.T) {
	h := newHarness(t)
	h.tap(key.F1)

	if got := h.rec.Events(); len(got) != 0 {
		t.Errorf("locked secret access emitted %v", got)
	}
}

func TestOutOfRangeSecretConsumedQuietly(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)
	h.tap(key.F2) // secret:9, table has one entry

	if got := h.rec.Events(); len(got) != 0 {
		t.Errorf("out-of-range secret emitted %v", got)
	}
	if h.gate.Status() != gate.StatusUnlocked {
		t.Errorf("out-of-range access changed gate state")
	}
}

func TestTapHoldQuickTap(t *testing.T) {
	h := newHarness(t)
	h.tap(key.A)

	want := []string{"down a", "up a"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestTapHoldInterruptChords(t *testing.T) {
	h := newHarness(t)

	h.press(key.A)
	h.tap(key.Z) // rolls into another key: a becomes a held meta
	h.release(key.A)

	want := []string{"down leftmeta", "down z", "up z", "up leftmeta"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestTapHoldLayerByTimeout(t *testing.T) {
	h := newHarness(t)

	h.press(key.D)
	h.now = h.now.Add(term)
	h.eng.tick(h.now)
	h.tap(key.H) // nav layer: h -> left
	h.release(key.D)
	h.tap(key.H) // base again

	want := []string{"down left", "up left", "down h", "up h"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestCycleTapsRotateSymbols(t *testing.T) {
	h := newHarness(t)

	h.tap(key.Semicolon)
	h.tap(key.Semicolon)

	want := []string{
		"down semicolon", "up semicolon",
		"down backspace", "up backspace",
		"down leftshift", "down semicolon", "up semicolon", "up leftshift",
	}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestSentenceCaseCapitalizesAfterPeriod(t *testing.T) {
	h := newHarness(t)

	h.tap(key.H)
	h.tap(key.Dot)
	h.tap(key.Space)
	h.rec.Reset()
	h.tap(key.T)

	want := []string{"down leftshift", "down t", "up t", "up leftshift"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestSentenceCaseToggleKey(t *testing.T) {
	h := newHarness(t)

	h.tap(key.F10) // off
	h.tap(key.H)
	h.tap(key.Dot)
	h.tap(key.Space)
	h.rec.Reset()
	h.tap(key.T)

	want := []string{"down t", "up t"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events = %v, want %v", h.rec.Events(), want)
	}
}

func TestMetaLayerDesktopSwitch(t *testing.T) {
	h := newHarness(t)

	h.press(key.Menu)
	h.tap(key.N2)
	h.release(key.Menu)

	got := strings.Join(h.rec.Events(), " ")
	if !strings.Contains(got, "down leftctrl") || !strings.Contains(got, "down right") {
		t.Errorf("desktop switch gesture missing: %v", h.rec.Events())
	}
	if h.eng.deps.VDesk.Current() != 2 {
		t.Errorf("desktop = %d, want 2", h.eng.deps.VDesk.Current())
	}
}

func TestMetaLayerRunCommand(t *testing.T) {
	h := newHarness(t)

	h.press(key.Menu)
	h.tap(key.R)
	h.release(key.Menu)

	got := strings.Join(h.rec.Events(), " ")
	for _, frag := range []string{"down r", "down w", "down t", "down dot", "down e", "down x", "down enter"} {
		if !strings.Contains(got, frag) {
			t.Errorf("run sequence missing %q: %v", frag, h.rec.Events())
		}
	}
}

func TestMetaLLocksGate(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)

	h.press(key.Menu)
	h.tap(key.L)
	h.release(key.Menu)

	if h.gate.Status() != gate.StatusLocked {
		t.Errorf("gate = %v after Meta+L, want locked", h.gate.Status())
	}
	// The chord still reaches the host so the session locks too.
	got := strings.Join(h.rec.Events(), " ")
	if !strings.Contains(got, "down l") {
		t.Errorf("Meta+L swallowed: %v", h.rec.Events())
	}
}

func TestAutoLockViaTick(t *testing.T) {
	h := newHarness(t)
	h.unlock(t)

	// The gate stamps the unlock with wall time, so drive Tick with
	// offsets from the real clock.
	h.eng.tick(time.Now().Add(5*time.Minute - time.Second))
	if h.gate.Status() != gate.StatusUnlocked {
		t.Fatalf("locked before the timeout elapsed")
	}
	h.eng.tick(time.Now().Add(5*time.Minute + time.Second))
	if h.gate.Status() != gate.StatusLocked {
		t.Errorf("gate = %v after timeout, want locked", h.gate.Status())
	}
}

func TestTraceRedactsPINCapture(t *testing.T) {
	h := newHarness(t)

	h.tap(key.F9)
	h.enterPIN("1234")
	h.tap(key.Enter)

	for _, r := range h.eng.deps.Trace.Records() {
		if r.Redacted && (r.Code != 0 || r.Key != "") {
			t.Errorf("redacted record retains key identity: %+v", r)
		}
		if !r.Redacted && r.Action == "pin-capture" {
			t.Errorf("pin-capture record not redacted: %+v", r)
		}
	}
}

func TestStatusSnapshot(t *testing.T) {
	h := newHarness(t)

	st := h.eng.Status()
	if st.Gate != gate.StatusLocked || st.Layer != "base" || st.Desktop != 1 || !st.SentenceCase {
		t.Errorf("status = %+v", st)
	}
	if st.LayoutHash == "" {
		t.Error("status missing layout hash")
	}
}

func TestReloadSwapsLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	if err := os.WriteFile(path, []byte(testLayout), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHarness(t)
	l, err := layout.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	h.eng.deps.LayoutPath = path
	h.eng.mu.Lock()
	h.eng.layout = l
	h.eng.mu.Unlock()

	updated := strings.Replace(testLayout, "h: key:left", "h: key:right", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.eng.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	h.press(key.CapsLock)
	h.tap(key.H)
	h.release(key.CapsLock)

	want := []string{"down right", "up right"}
	if !reflect.DeepEqual(h.rec.Events(), want) {
		t.Errorf("events after reload = %v, want %v", h.rec.Events(), want)
	}
}
