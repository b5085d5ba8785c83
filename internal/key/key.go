// Package key defines logical key codes and key events.
//
// Codes follow the Linux input-event-codes key space, which is what both the
// evdev source and the uinput emitter speak natively. Everything above the
// source reads and writes these codes only; nothing else in the daemon knows
// about scan codes or HID usages.
package key

// Code identifies a logical key.
type Code uint16

// Event is a single key transition as delivered by a source.
type Event struct {
	Code    Code
	Pressed bool
}

// Key codes used by the layouts and features. Values match
// linux/input-event-codes.h.
const (
	None Code = 0

	Esc       Code = 1
	N1        Code = 2
	N2        Code = 3
	N3        Code = 4
	N4        Code = 5
	N5        Code = 6
	N6        Code = 7
	N7        Code = 8
	N8        Code = 9
	N9        Code = 10
	N0        Code = 11
	Minus     Code = 12
	Equal     Code = 13
	Backspace Code = 14
	Tab       Code = 15

	Q          Code = 16
	W          Code = 17
	E          Code = 18
	R          Code = 19
	T          Code = 20
	Y          Code = 21
	U          Code = 22
	I          Code = 23
	O          Code = 24
	P          Code = 25
	LeftBrace  Code = 26
	RightBrace Code = 27
	Enter      Code = 28
	LeftCtrl   Code = 29

	A          Code = 30
	S          Code = 31
	D          Code = 32
	F          Code = 33
	G          Code = 34
	H          Code = 35
	J          Code = 36
	K          Code = 37
	L          Code = 38
	Semicolon  Code = 39
	Apostrophe Code = 40
	Grave      Code = 41
	LeftShift  Code = 42
	Backslash  Code = 43

	Z          Code = 44
	X          Code = 45
	C          Code = 46
	V          Code = 47
	B          Code = 48
	N          Code = 49
	M          Code = 50
	Comma      Code = 51
	Dot        Code = 52
	Slash      Code = 53
	RightShift Code = 54

	KPAsterisk Code = 55
	LeftAlt    Code = 56
	Space      Code = 57
	CapsLock   Code = 58

	F1  Code = 59
	F2  Code = 60
	F3  Code = 61
	F4  Code = 62
	F5  Code = 63
	F6  Code = 64
	F7  Code = 65
	F8  Code = 66
	F9  Code = 67
	F10 Code = 68

	NumLock Code = 69
	KP7     Code = 71
	KP8     Code = 72
	KP9     Code = 73
	KPMinus Code = 74
	KP4     Code = 75
	KP5     Code = 76
	KP6     Code = 77
	KPPlus  Code = 78
	KP1     Code = 79
	KP2     Code = 80
	KP3     Code = 81
	KP0     Code = 82
	KPDot   Code = 83

	F11      Code = 87
	F12      Code = 88
	KPEnter  Code = 96
	RightCtrl Code = 97
	KPSlash  Code = 98
	RightAlt Code = 100

	Home     Code = 102
	Up       Code = 103
	PageUp   Code = 104
	Left     Code = 105
	Right    Code = 106
	End      Code = 107
	Down     Code = 108
	PageDown Code = 109
	Insert   Code = 110
	Delete   Code = 111

	LeftMeta  Code = 125
	RightMeta Code = 126
	Menu      Code = 127
)

// IsModifier reports whether c is a plain modifier key.
func IsModifier(c Code) bool {
	switch c {
	case LeftCtrl, RightCtrl, LeftShift, RightShift, LeftAlt, RightAlt, LeftMeta, RightMeta:
		return true
	}
	return false
}

// Digit returns the decimal digit for number-row and keypad digit keys.
// The second return is false for every other key.
func Digit(c Code) (byte, bool) {
	switch {
	case c == N0:
		return '0', true
	case c >= N1 && c <= N9:
		return byte('1' + (c - N1)), true
	case c == KP0:
		return '0', true
	case c >= KP1 && c <= KP3:
		return byte('1' + (c - KP1)), true
	case c >= KP4 && c <= KP6:
		return byte('4' + (c - KP4)), true
	case c >= KP7 && c <= KP9:
		return byte('7' + (c - KP7)), true
	}
	return 0, false
}

// IsLetter reports whether c is one of the A–Z keys.
func IsLetter(c Code) bool {
	return (c >= Q && c <= P) || (c >= A && c <= L) || (c >= Z && c <= M)
}
