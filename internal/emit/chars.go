package emit

import "github.com/ebolton/keygate/internal/key"

// keystroke is a key plus whether shift must be held, for a US layout.
type keystroke struct {
	code  key.Code
	shift bool
}

var plain = map[rune]key.Code{
	'a': key.A, 'b': key.B, 'c': key.C, 'd': key.D, 'e': key.E,
	'f': key.F, 'g': key.G, 'h': key.H, 'i': key.I, 'j': key.J,
	'k': key.K, 'l': key.L, 'm': key.M, 'n': key.N, 'o': key.O,
	'p': key.P, 'q': key.Q, 'r': key.R, 's': key.S, 't': key.T,
	'u': key.U, 'v': key.V, 'w': key.W, 'x': key.X, 'y': key.Y,
	'z': key.Z,

	'1': key.N1, '2': key.N2, '3': key.N3, '4': key.N4, '5': key.N5,
	'6': key.N6, '7': key.N7, '8': key.N8, '9': key.N9, '0': key.N0,

	' ': key.Space, '\t': key.Tab, '\n': key.Enter,
	'-': key.Minus, '=': key.Equal, '[': key.LeftBrace, ']': key.RightBrace,
	'\\': key.Backslash, ';': key.Semicolon, '\'': key.Apostrophe,
	'`': key.Grave, ',': key.Comma, '.': key.Dot, '/': key.Slash,
}

var shifted = map[rune]key.Code{
	'A': key.A, 'B': key.B, 'C': key.C, 'D': key.D, 'E': key.E,
	'F': key.F, 'G': key.G, 'H': key.H, 'I': key.I, 'J': key.J,
	'K': key.K, 'L': key.L, 'M': key.M, 'N': key.N, 'O': key.O,
	'P': key.P, 'Q': key.Q, 'R': key.R, 'S': key.S, 'T': key.T,
	'U': key.U, 'V': key.V, 'W': key.W, 'X': key.X, 'Y': key.Y,
	'Z': key.Z,

	'!': key.N1, '@': key.N2, '#': key.N3, '$': key.N4, '%': key.N5,
	'^': key.N6, '&': key.N7, '*': key.N8, '(': key.N9, ')': key.N0,

	'_': key.Minus, '+': key.Equal, '{': key.LeftBrace, '}': key.RightBrace,
	'|': key.Backslash, ':': key.Semicolon, '"': key.Apostrophe,
	'~': key.Grave, '<': key.Comma, '>': key.Dot, '?': key.Slash,
}

// strokeFor maps a rune to the keystroke that produces it on a US layout.
func strokeFor(r rune) (keystroke, bool) {
	if c, ok := plain[r]; ok {
		return keystroke{code: c}, true
	}
	if c, ok := shifted[r]; ok {
		return keystroke{code: c, shift: true}, true
	}
	return keystroke{}, false
}
