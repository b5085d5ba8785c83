package source

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ebolton/keygate/internal/key"
)

// OpenFunc opens the underlying device. The monitor calls it again after
// each disconnect.
type OpenFunc func() (Source, error)

// Monitor wraps a Source and reopens it after transient disconnects, so
// an unplugged and replugged keyboard does not take the daemon down.
type Monitor struct {
	open   OpenFunc
	retry  time.Duration
	logger *slog.Logger
	events chan key.Event

	// onDisconnect fires once per disconnect, before the reopen loop.
	onDisconnect func()

	mu     sync.Mutex
	src    Source
	closed bool
	done   chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithRetryInterval sets the pause between reopen attempts.
func WithRetryInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.retry = d }
}

// WithOnDisconnect registers a callback fired when the device goes away.
func WithOnDisconnect(fn func()) MonitorOption {
	return func(m *Monitor) { m.onDisconnect = fn }
}

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = logger }
}

// NewMonitor opens the device once up front, so startup errors surface
// immediately, then supervises it.
func NewMonitor(open OpenFunc, opts ...MonitorOption) (*Monitor, error) {
	m := &Monitor{
		open:   open,
		retry:  2 * time.Second,
		logger: slog.Default(),
		events: make(chan key.Event, 64),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "source-monitor")

	src, err := open()
	if err != nil {
		return nil, err
	}
	m.src = src
	go m.run()
	return m, nil
}

// Events implements Source.
func (m *Monitor) Events() <-chan key.Event { return m.events }

func (m *Monitor) run() {
	defer close(m.events)
	for {
		m.mu.Lock()
		src, closed := m.src, m.closed
		m.mu.Unlock()
		if closed {
			return
		}

		for ev := range src.Events() {
			m.events <- ev
		}

		m.mu.Lock()
		closed = m.closed
		m.src = nil
		m.mu.Unlock()
		if closed {
			return
		}

		m.logger.Warn("input device disconnected, reopening")
		if m.onDisconnect != nil {
			m.onDisconnect()
		}

		if !m.reopen() {
			return
		}
	}
}

// reopen polls until the device comes back or the monitor is closed.
func (m *Monitor) reopen() bool {
	for {
		select {
		case <-m.done:
			return false
		case <-time.After(m.retry):
		}

		src, err := m.open()
		if err != nil {
			m.logger.Debug("device still absent", "error", err)
			continue
		}

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			src.Close()
			return false
		}
		m.src = src
		m.mu.Unlock()

		m.logger.Info("input device reopened")
		return true
	}
}

// Close stops supervision and closes the current device.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	src := m.src
	m.mu.Unlock()

	close(m.done)
	if src != nil {
		return src.Close()
	}
	return nil
}
