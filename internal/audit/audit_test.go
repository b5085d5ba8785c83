package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	ts := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

	l.Log(Entry{
		Timestamp: ts,
		Action:    ActionUnlocked,
		Actor:     "daemon",
	})

	l.Log(Entry{
		Timestamp: ts.Add(time.Minute),
		Action:    ActionSecretEmitted,
		Secret:    "pass1",
		Actor:     "daemon",
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var e1 Entry
	json.Unmarshal([]byte(lines[0]), &e1)
	if e1.Action != ActionUnlocked {
		t.Errorf("expected unlocked, got %v", e1.Action)
	}
	if e1.Actor != "daemon" {
		t.Errorf("expected daemon, got %q", e1.Actor)
	}

	var e2 Entry
	json.Unmarshal([]byte(lines[1]), &e2)
	if e2.Action != ActionSecretEmitted {
		t.Errorf("expected secret_emitted, got %v", e2.Action)
	}
	if e2.Secret != "pass1" {
		t.Errorf("expected pass1, got %q", e2.Secret)
	}
}

func TestLoggerDefaultsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, _ := NewLogger(path)
	defer l.Close()

	before := time.Now().UTC()
	l.Log(Entry{Action: ActionLocked, Reason: "timeout"})

	data, _ := os.ReadFile(path)
	var e Entry
	json.Unmarshal([]byte(strings.TrimSpace(string(data))), &e)
	if e.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("timestamp not defaulted: %v", e.Timestamp)
	}
	if e.Reason != "timeout" {
		t.Errorf("expected timeout reason, got %q", e.Reason)
	}
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	l1, _ := NewLogger(path)
	l1.Log(Entry{Action: ActionSecretWrite, Secret: "first"})
	l1.Close()

	l2, _ := NewLogger(path)
	l2.Log(Entry{Action: ActionSecretRead, Secret: "second"})
	l2.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestGateRecorderNeverLogsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, _ := NewLogger(path)
	defer l.Close()

	r := NewGateRecorder(l)
	r.Unlocked()
	r.SecretEmitted("phrase")
	r.AccessDenied(3)
	r.Locked("toggle")

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}

	var emit Entry
	json.Unmarshal([]byte(lines[1]), &emit)
	if emit.Secret != "phrase" {
		t.Errorf("expected secret name, got %q", emit.Secret)
	}

	// A denied access must not record which index was probed.
	var denied Entry
	json.Unmarshal([]byte(lines[2]), &denied)
	if denied.Secret != "" {
		t.Errorf("denied entry leaked secret identity: %q", denied.Secret)
	}
}
