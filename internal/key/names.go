package key

import (
	"fmt"
	"strings"
)

// names maps layout-file key names to codes. Names are lowercase; letters and
// digits use their literal character.
var names = map[string]Code{
	"esc": Esc, "tab": Tab, "enter": Enter, "space": Space,
	"backspace": Backspace, "capslock": CapsLock, "grave": Grave,
	"minus": Minus, "equal": Equal, "leftbrace": LeftBrace,
	"rightbrace": RightBrace, "backslash": Backslash,
	"semicolon": Semicolon, "apostrophe": Apostrophe,
	"comma": Comma, "dot": Dot, "slash": Slash, "menu": Menu,

	"leftctrl": LeftCtrl, "rightctrl": RightCtrl,
	"leftshift": LeftShift, "rightshift": RightShift,
	"leftalt": LeftAlt, "rightalt": RightAlt,
	"leftmeta": LeftMeta, "rightmeta": RightMeta,

	"home": Home, "end": End, "pageup": PageUp, "pagedown": PageDown,
	"up": Up, "down": Down, "left": Left, "right": Right,
	"insert": Insert, "delete": Delete, "numlock": NumLock,

	"kp0": KP0, "kp1": KP1, "kp2": KP2, "kp3": KP3, "kp4": KP4,
	"kp5": KP5, "kp6": KP6, "kp7": KP7, "kp8": KP8, "kp9": KP9,
	"kpenter": KPEnter, "kpdot": KPDot, "kpminus": KPMinus,
	"kpplus": KPPlus, "kpslash": KPSlash, "kpasterisk": KPAsterisk,

	"a": A, "b": B, "c": C, "d": D, "e": E, "f": F, "g": G, "h": H,
	"i": I, "j": J, "k": K, "l": L, "m": M, "n": N, "o": O, "p": P,
	"q": Q, "r": R, "s": S, "t": T, "u": U, "v": V, "w": W, "x": X,
	"y": Y, "z": Z,

	"1": N1, "2": N2, "3": N3, "4": N4, "5": N5,
	"6": N6, "7": N7, "8": N8, "9": N9, "0": N0,

	"f1": F1, "f2": F2, "f3": F3, "f4": F4, "f5": F5, "f6": F6,
	"f7": F7, "f8": F8, "f9": F9, "f10": F10, "f11": F11, "f12": F12,
}

var codeNames = func() map[Code]string {
	m := make(map[Code]string, len(names))
	for n, c := range names {
		m[c] = n
	}
	return m
}()

// Parse resolves a layout key name to a code.
func Parse(name string) (Code, error) {
	c, ok := names[strings.ToLower(name)]
	if !ok {
		return None, fmt.Errorf("unknown key name %q", name)
	}
	return c, nil
}

// Name returns the layout name for a code, or its numeric form when the code
// has no name.
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}
