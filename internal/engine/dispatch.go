package engine

import (
	"fmt"
	"time"

	"github.com/ebolton/keygate/internal/feature/taphold"
	"github.com/ebolton/keygate/internal/gate"
	"github.com/ebolton/keygate/internal/key"
	"github.com/ebolton/keygate/internal/layout"
	"github.com/ebolton/keygate/internal/trace"
)

type downKind int

const (
	// downPass: release the mapped key on the output device.
	downPass downKind = iota
	// downSuppress: swallow the release.
	downSuppress
	// downLayer: pop the momentary layer.
	downLayer
	// downMeta: deactivate the meta layer.
	downMeta
	// downTapHold: the resolver decides what the release means.
	downTapHold
)

// downAction remembers what a key press decided so its release can be
// routed the same way.
type downAction struct {
	kind   downKind
	key    key.Code
	layer  string
	action layout.Action
	label  string
}

func (e *Engine) handle(ev key.Event, now time.Time) {
	e.deps.Meta.ObserveKey(ev.Code, ev.Pressed)

	if key.IsModifier(ev.Code) {
		e.mu.Lock()
		e.modsDown[ev.Code] = ev.Pressed
		e.mu.Unlock()
	}

	if ev.Pressed {
		e.handlePress(ev, now)
	} else {
		e.handleRelease(ev, now)
	}
}

func (e *Engine) handlePress(ev key.Event, now time.Time) {
	// A second key going down while a tap-hold is pending resolves it
	// as a hold immediately, so rolled presses chord instead of tapping.
	if pending, ok := e.deps.TapHold.Pending(); ok && pending != ev.Code {
		if _, ok := e.deps.TapHold.Interrupt(now); ok {
			e.mu.Lock()
			a := e.pendingAction
			e.mu.Unlock()
			e.beginHold(a)
		}
	}

	e.mu.Lock()
	layer := e.activeLayerLocked()
	l := e.layout
	e.mu.Unlock()

	// PIN capture owns digits, Enter, and Escape before any binding.
	if e.deps.Gate.Capturing() {
		if in, ok := captureInput(ev.Code); ok {
			if e.deps.Gate.HandleCaptureKey(in) {
				e.setDown(ev.Code, downAction{kind: downSuppress, label: "pin-capture"})
				e.addTrace(ev, layer, "pin-capture", true, true)
				return
			}
		}
	}

	a, bound := l.Resolve(layer, ev.Code)
	if !bound {
		e.passThrough(ev.Code, layer)
		return
	}

	switch a.Kind {
	case layout.ActionKey:
		e.pressKey(ev.Code, a.Key, layer, "key:"+a.Key.String())

	case layout.ActionLayer:
		e.mu.Lock()
		e.momentary = append(e.momentary, a.Layer)
		e.mu.Unlock()
		e.deps.SentenceCase.Clear()
		e.setDown(ev.Code, downAction{kind: downLayer, layer: a.Layer, label: "layer:" + a.Layer})
		e.addTrace(ev, layer, "layer:"+a.Layer, true, false)

	case layout.ActionTapHold:
		if !e.deps.TapHold.Press(ev.Code, now) {
			e.passThrough(ev.Code, layer)
			return
		}
		e.mu.Lock()
		e.pendingAction = a
		e.mu.Unlock()
		e.setDown(ev.Code, downAction{kind: downTapHold, action: a, label: "tap-hold"})
		e.addTrace(ev, layer, "tap-hold", true, false)

	case layout.ActionCycle:
		e.cycle(ev, a, layer, now)

	case layout.ActionPinEntry:
		e.deps.Gate.RequestUnlock()
		e.deps.SentenceCase.Clear()
		e.consume(ev, layer, "pin-entry")

	case layout.ActionSecret:
		e.deps.Gate.HandleSecretAccess(a.Secret)
		e.deps.SentenceCase.Clear()
		e.consume(ev, layer, "secret")

	case layout.ActionVDesk:
		var err error
		if e.shiftDown() {
			err = e.deps.VDesk.MoveWindow(a.Desktop)
		} else {
			err = e.deps.VDesk.Switch(a.Desktop)
		}
		if err != nil {
			e.logger.Error("desktop switch failed", "target", a.Desktop, "error", err)
		}
		e.deps.SentenceCase.Clear()
		e.consume(ev, layer, fmt.Sprintf("vdesk:%d", a.Desktop))

	case layout.ActionRun:
		if err := e.deps.Runner.Run(a.Command); err != nil {
			e.logger.Error("run command failed", "name", a.Command, "error", err)
		}
		e.deps.SentenceCase.Clear()
		e.consume(ev, layer, "run:"+a.Command)

	case layout.ActionMetaLayer:
		if err := e.deps.Meta.Activate(); err != nil {
			e.logger.Error("meta layer activation failed", "error", err)
		}
		e.setDown(ev.Code, downAction{kind: downMeta, label: "meta-layer"})
		e.addTrace(ev, layer, "meta-layer", true, false)

	case layout.ActionSentenceToggle:
		on := e.deps.SentenceCase.Toggle()
		e.logger.Info("sentence case toggled", "enabled", on)
		e.consume(ev, layer, "sentence-case-toggle")

	case layout.ActionLock:
		e.deps.Gate.LockNow()
		e.consume(ev, layer, "lock")
	}
}

func (e *Engine) handleRelease(ev key.Event, now time.Time) {
	e.mu.Lock()
	da, known := e.downs[ev.Code]
	if known {
		delete(e.downs, ev.Code)
	}
	layer := e.activeLayerLocked()
	e.mu.Unlock()

	if !known {
		// A key held down before the daemon started; let it go cleanly.
		e.emit(e.deps.Emitter.Release(ev.Code))
		e.addTrace(ev, layer, "", false, false)
		return
	}

	switch da.kind {
	case downPass:
		e.emit(e.deps.Emitter.Release(da.key))

	case downSuppress:
		// Nothing reaches the host.

	case downLayer:
		e.mu.Lock()
		e.popMomentaryLocked(da.layer)
		e.mu.Unlock()

	case downMeta:
		if err := e.deps.Meta.Deactivate(); err != nil {
			e.logger.Error("meta layer deactivation failed", "error", err)
		}

	case downTapHold:
		switch e.deps.TapHold.Release(ev.Code, now) {
		case taphold.EventTap:
			e.tapResolved(da.action)
		case taphold.EventHoldEnd:
			e.endHold(da.action)
		case taphold.EventHoldPulse:
			e.beginHold(da.action)
			e.endHold(da.action)
		}
	}

	redacted := da.label == "pin-capture"
	e.addTrace(ev, layer, da.label, da.kind != downPass, redacted)
}

// passThrough forwards an unbound key, applying sentence-case
// capitalization to primed letters.
func (e *Engine) passThrough(c key.Code, layer string) {
	e.pressKey(c, c, layer, "")
}

// pressKey emits a (possibly remapped) key press and arranges for its
// release.
func (e *Engine) pressKey(physical, out key.Code, layer, label string) {
	shift := e.shiftDown()
	// Modifiers are invisible to the sentence tracker; a shift press
	// between ". " and the next letter must not clear the prime.
	capitalize := !key.IsModifier(out) &&
		e.deps.SentenceCase.ShouldCapitalize(out, shift, e.otherModsDown())

	if capitalize && !shift {
		// Emit the whole shifted tap at once and swallow the release.
		e.emit(e.deps.Emitter.Chord([]key.Code{key.LeftShift}, out))
		e.setDown(physical, downAction{kind: downSuppress, label: label})
	} else {
		e.emit(e.deps.Emitter.Press(out))
		e.setDown(physical, downAction{kind: downPass, key: out, label: label})
	}
	e.addTrace(key.Event{Code: physical, Pressed: true}, layer, label, label != "", false)
}

func (e *Engine) cycle(ev key.Event, a layout.Action, layer string, now time.Time) {
	e.mu.Lock()
	c, ok := e.cyclers[ev.Code]
	if !ok {
		c = taphold.NewCycler(a.CycleSyms, e.deps.TapHoldTerm)
		e.cyclers[ev.Code] = c
	}
	e.mu.Unlock()

	sym, backspace := c.Tap(now)
	if backspace {
		e.emit(e.deps.Emitter.Tap(key.Backspace))
	}
	e.emit(e.deps.Emitter.Type(string(sym)))
	e.deps.SentenceCase.Clear()
	e.consume(ev, layer, "cycle")
}

// tapResolved emits the tap half of a resolved tap-hold key.
func (e *Engine) tapResolved(a layout.Action) {
	shift := e.shiftDown()
	if e.deps.SentenceCase.ShouldCapitalize(a.Key, shift, e.otherModsDown()) && !shift {
		e.emit(e.deps.Emitter.Chord([]key.Code{key.LeftShift}, a.Key))
		return
	}
	e.emit(e.deps.Emitter.Tap(a.Key))
}

func (e *Engine) beginHold(a layout.Action) {
	if a.Kind != layout.ActionTapHold {
		return
	}
	switch a.HoldKind {
	case layout.HoldModifier:
		e.emit(e.deps.Emitter.Press(a.HoldKey))
	case layout.HoldLayer:
		e.mu.Lock()
		e.momentary = append(e.momentary, a.Layer)
		e.mu.Unlock()
	}
}

func (e *Engine) endHold(a layout.Action) {
	switch a.HoldKind {
	case layout.HoldModifier:
		e.emit(e.deps.Emitter.Release(a.HoldKey))
	case layout.HoldLayer:
		e.mu.Lock()
		e.popMomentaryLocked(a.Layer)
		e.mu.Unlock()
	}
}

func (e *Engine) popMomentaryLocked(layer string) {
	for i := len(e.momentary) - 1; i >= 0; i-- {
		if e.momentary[i] == layer {
			e.momentary = append(e.momentary[:i], e.momentary[i+1:]...)
			return
		}
	}
}

// captureInput classifies a key into the gate's capture alphabet.
func captureInput(c key.Code) (gate.Input, bool) {
	if d, ok := key.Digit(c); ok {
		return gate.DigitInput(d), true
	}
	switch c {
	case key.Enter, key.KPEnter:
		return gate.Input{Kind: gate.Submit}, true
	case key.Esc:
		return gate.Input{Kind: gate.Cancel}, true
	}
	return gate.Input{}, false
}

func (e *Engine) setDown(c key.Code, da downAction) {
	e.mu.Lock()
	e.downs[c] = da
	e.mu.Unlock()
}

// consume swallows a press entirely: the host never sees the key.
func (e *Engine) consume(ev key.Event, layer, label string) {
	e.setDown(ev.Code, downAction{kind: downSuppress, label: label})
	e.addTrace(ev, layer, label, true, false)
}

func (e *Engine) shiftDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modsDown[key.LeftShift] || e.modsDown[key.RightShift]
}

func (e *Engine) otherModsDown() bool {
	e.mu.Lock()
	down := e.modsDown[key.LeftCtrl] || e.modsDown[key.RightCtrl] ||
		e.modsDown[key.LeftAlt] || e.modsDown[key.RightAlt] ||
		e.modsDown[key.LeftMeta] || e.modsDown[key.RightMeta]
	e.mu.Unlock()
	return down || e.deps.Meta.Active()
}

func (e *Engine) addTrace(ev key.Event, layer, label string, consumed, redacted bool) {
	if e.deps.Trace == nil {
		return
	}
	e.deps.Trace.Add(trace.Record{
		Code:     ev.Code,
		Pressed:  ev.Pressed,
		Layer:    layer,
		Action:   label,
		Consumed: consumed,
		Redacted: redacted,
	})
}

func (e *Engine) emit(err error) {
	if err != nil {
		e.logger.Error("emit failed", "error", err)
	}
}
