// Package audit provides append-only structured logging for security events.
//
// Every gate transition and secret operation is recorded to an audit log at
// ~/.keygate/audit.log as newline-delimited JSON. The log is operator-facing
// only: nothing here produces a user-visible signal, so the gate's
// no-information-leak posture is unaffected. Secret values are never logged,
// only their configured names.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionUnlocked      Action = "unlocked"
	ActionLocked        Action = "locked"
	ActionAttemptFailed Action = "attempt_failed"
	ActionSecretEmitted Action = "secret_emitted"
	ActionAccessDenied  Action = "access_denied"
	ActionSecretRead    Action = "secret_read"
	ActionSecretWrite   Action = "secret_write"
	ActionSecretDelete  Action = "secret_delete"
	ActionPINChanged    Action = "pin_changed"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Secret    string    `json:"secret,omitempty"` // secret name, never its value
	Actor     string    `json:"actor,omitempty"`  // "cli", "daemon"
	Reason    string    `json:"reason,omitempty"` // lock reason: "timeout", "toggle", "explicit", "cancel"
	Error     string    `json:"error,omitempty"`
}

// Logger writes audit entries to an append-only file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f, path: path}, nil
}

// Log writes an audit entry.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}
