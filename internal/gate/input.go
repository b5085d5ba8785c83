package gate

// Kind is the gate's recognized input alphabet. Keystrokes are classified
// into this closed set before they reach the state machine, so the gate
// itself carries no host key-code constants.
type Kind int

const (
	// Other is anything outside the recognized alphabet; the gate passes it
	// through unconsumed.
	Other Kind = iota
	// Digit is a decimal digit from the number row or keypad.
	Digit
	// Submit ends PIN capture and checks the buffer (Enter).
	Submit
	// Cancel aborts PIN capture (Escape).
	Cancel
	// ModeToggle requests entering or leaving PIN capture.
	ModeToggle
	// SecretAccess requests emission of the secret at Input.Secret.
	SecretAccess
)

// Input is one classified keystroke.
type Input struct {
	Kind   Kind
	Digit  byte // '0'–'9', set for Kind == Digit
	Secret int  // dense secret index, set for Kind == SecretAccess
}

// DigitInput builds a digit input.
func DigitInput(d byte) Input { return Input{Kind: Digit, Digit: d} }

// SecretInput builds a secret-access input for index i.
func SecretInput(i int) Input { return Input{Kind: SecretAccess, Secret: i} }
