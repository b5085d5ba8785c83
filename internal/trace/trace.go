// Package trace keeps a bounded in-memory trace of dispatch decisions for
// debugging layouts. The control API exposes it; nothing is persisted.
package trace

import (
	"sync"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

// Record describes how one input event was dispatched.
type Record struct {
	Time    time.Time `json:"ts"`
	Code    key.Code  `json:"code"`
	Key     string    `json:"key"`
	Pressed bool      `json:"pressed"`
	Layer   string    `json:"layer"`
	// Action names what consumed the event; empty means pass-through.
	Action   string `json:"action,omitempty"`
	Consumed bool   `json:"consumed"`
	// Redacted records mark PIN-capture input. The key identity is
	// withheld so the trace cannot reconstruct a PIN.
	Redacted bool `json:"redacted,omitempty"`
}

// Buffer is a fixed-capacity ring of dispatch records, safe for
// concurrent use. When full, new records evict the oldest.
type Buffer struct {
	mu      sync.Mutex
	records []Record
	next    int
	wrapped bool
}

// NewBuffer creates a buffer keeping the last n records.
func NewBuffer(n int) *Buffer {
	return &Buffer{records: make([]Record, n)}
}

// Add appends a record, stamping the time if unset.
func (b *Buffer) Add(r Record) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	if r.Redacted {
		r.Code = 0
		r.Key = ""
	} else if r.Key == "" {
		r.Key = r.Code.String()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[b.next] = r
	b.next++
	if b.next == len(b.records) {
		b.next = 0
		b.wrapped = true
	}
}

// Records returns all stored records, oldest first.
func (b *Buffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.wrapped {
		out := make([]Record, b.next)
		copy(out, b.records[:b.next])
		return out
	}
	out := make([]Record, len(b.records))
	n := copy(out, b.records[b.next:])
	copy(out[n:], b.records[:b.next])
	return out
}

// Last returns the most recent n records, oldest first.
func (b *Buffer) Last(n int) []Record {
	all := b.Records()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of stored records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.wrapped {
		return len(b.records)
	}
	return b.next
}
