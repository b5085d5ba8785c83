package audit

import (
	"github.com/ebolton/keygate/internal/gate"
)

// GateRecorder adapts a Logger to the gate's Observer interface. Audit
// logging is best-effort; a failure to log never blocks a transition.
type GateRecorder struct {
	log *Logger
}

// NewGateRecorder creates an observer that records gate transitions.
func NewGateRecorder(log *Logger) *GateRecorder {
	return &GateRecorder{log: log}
}

func (r *GateRecorder) Unlocked() {
	r.log.Log(Entry{Action: ActionUnlocked, Actor: "daemon"})
}

func (r *GateRecorder) Locked(reason string) {
	r.log.Log(Entry{Action: ActionLocked, Actor: "daemon", Reason: reason})
}

func (r *GateRecorder) AttemptFailed() {
	r.log.Log(Entry{Action: ActionAttemptFailed, Actor: "daemon"})
}

func (r *GateRecorder) SecretEmitted(name string) {
	r.log.Log(Entry{Action: ActionSecretEmitted, Secret: name, Actor: "daemon"})
}

func (r *GateRecorder) AccessDenied(index int) {
	r.log.Log(Entry{Action: ActionAccessDenied, Actor: "daemon"})
}

var _ gate.Observer = (*GateRecorder)(nil)
