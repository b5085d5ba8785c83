package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ebolton/keygate/internal/key"
)

// ActionKind discriminates what a bound key does.
type ActionKind int

const (
	// ActionKey remaps to a plain key.
	ActionKey ActionKind = iota
	// ActionLayer activates a layer while held.
	ActionLayer
	// ActionTapHold emits a key on tap, a modifier or layer on hold.
	ActionTapHold
	// ActionCycle cycles through symbols on repeated taps.
	ActionCycle
	// ActionPinEntry toggles the gate's PIN capture mode.
	ActionPinEntry
	// ActionSecret requests emission of a gated secret by index.
	ActionSecret
	// ActionVDesk switches to a virtual desktop (with shift: moves the
	// focused window there).
	ActionVDesk
	// ActionRun launches a named command through the host run dialog.
	ActionRun
	// ActionMetaLayer holds the meta modifier and activates the meta layer.
	ActionMetaLayer
	// ActionSentenceToggle flips the sentence-case feature.
	ActionSentenceToggle
	// ActionLock forces the gate to lock immediately.
	ActionLock
)

// HoldKind discriminates a tap-hold binding's hold behavior.
type HoldKind int

const (
	// HoldModifier holds a modifier key.
	HoldModifier HoldKind = iota
	// HoldLayer activates a layer momentarily.
	HoldLayer
)

// Action is one compiled key binding.
type Action struct {
	Kind ActionKind

	Key       key.Code // ActionKey, ActionTapHold tap key
	Layer     string   // ActionLayer, ActionTapHold layer hold
	HoldKind  HoldKind // ActionTapHold
	HoldKey   key.Code // ActionTapHold modifier hold
	Secret    int      // ActionSecret
	Desktop   int      // ActionVDesk
	Command   string   // ActionRun
	CycleSyms []rune   // ActionCycle
}

// ParseAction compiles a binding string from a layout file.
//
// Recognized forms:
//
//	key:<name>            plain remap
//	layer:<name>          momentary layer while held
//	tap-hold:<key>/<hold> tap emits <key>; <hold> is a modifier name or layer:<name>
//	cycle:<symbols>       repeated taps cycle the symbols, backspacing between
//	pin-entry             gate mode toggle
//	secret:<n>            gated secret by dense index
//	vdesk:<n>             virtual desktop switch (shift held: move window)
//	run:<name>            command from the layout's commands table
//	meta-layer            hold meta modifier + meta layer
//	sentence-case-toggle  flip sentence case
//	lock                  lock the gate now
func ParseAction(s string) (Action, error) {
	switch s {
	case "pin-entry":
		return Action{Kind: ActionPinEntry}, nil
	case "meta-layer":
		return Action{Kind: ActionMetaLayer}, nil
	case "sentence-case-toggle":
		return Action{Kind: ActionSentenceToggle}, nil
	case "lock":
		return Action{Kind: ActionLock}, nil
	}

	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Action{}, fmt.Errorf("invalid binding %q", s)
	}

	switch kind {
	case "key":
		c, err := key.Parse(rest)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionKey, Key: c}, nil

	case "layer":
		if rest == "" {
			return Action{}, fmt.Errorf("layer binding needs a layer name")
		}
		return Action{Kind: ActionLayer, Layer: rest}, nil

	case "tap-hold":
		tapName, holdSpec, ok := strings.Cut(rest, "/")
		if !ok {
			return Action{}, fmt.Errorf("tap-hold binding %q needs <key>/<hold>", s)
		}
		tap, err := key.Parse(tapName)
		if err != nil {
			return Action{}, fmt.Errorf("tap-hold tap key: %w", err)
		}
		if layerName, isLayer := strings.CutPrefix(holdSpec, "layer:"); isLayer {
			if layerName == "" {
				return Action{}, fmt.Errorf("tap-hold layer hold needs a layer name")
			}
			return Action{Kind: ActionTapHold, Key: tap, HoldKind: HoldLayer, Layer: layerName}, nil
		}
		hold, err := key.Parse(holdSpec)
		if err != nil {
			return Action{}, fmt.Errorf("tap-hold hold key: %w", err)
		}
		if !key.IsModifier(hold) {
			return Action{}, fmt.Errorf("tap-hold hold key %q must be a modifier", holdSpec)
		}
		return Action{Kind: ActionTapHold, Key: tap, HoldKind: HoldModifier, HoldKey: hold}, nil

	case "cycle":
		if rest == "" {
			return Action{}, fmt.Errorf("cycle binding needs at least one symbol")
		}
		return Action{Kind: ActionCycle, CycleSyms: []rune(rest)}, nil

	case "secret":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return Action{}, fmt.Errorf("secret binding %q needs a non-negative index", s)
		}
		return Action{Kind: ActionSecret, Secret: n}, nil

	case "vdesk":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Action{}, fmt.Errorf("vdesk binding %q needs a desktop number from 1", s)
		}
		return Action{Kind: ActionVDesk, Desktop: n}, nil

	case "run":
		if rest == "" {
			return Action{}, fmt.Errorf("run binding needs a command name")
		}
		return Action{Kind: ActionRun, Command: rest}, nil
	}

	return Action{}, fmt.Errorf("unknown binding %q", s)
}
