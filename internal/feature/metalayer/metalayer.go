// Package metalayer implements the held meta layer: while its key is
// down, the meta modifier is held on the output device and a dedicated
// layer is active, so single taps become Meta+key chords. It also hooks
// Meta+L, the host lock shortcut, to lock the secrets gate at the same
// moment the screen locks. The chord still reaches the host.
package metalayer

import (
	"log/slog"
	"sync"

	"github.com/ebolton/keygate/internal/key"
)

// Keys is the emitter subset the handler drives.
type Keys interface {
	Press(key.Code) error
	Release(key.Code) error
}

// Locker locks the secrets gate.
type Locker interface {
	LockNow()
}

// Handler manages meta layer activation and the Meta+L lock hook.
type Handler struct {
	mu       sync.Mutex
	keys     Keys
	locker   Locker
	layer    string
	active   bool
	metaDown bool
	logger   *slog.Logger
}

// New creates a handler that activates the named layer while held.
func New(keys Keys, locker Locker, layer string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		keys:   keys,
		locker: locker,
		layer:  layer,
		logger: logger.With("component", "metalayer"),
	}
}

// Layer returns the layer activated while the meta key is held.
func (h *Handler) Layer() string { return h.layer }

// Active reports whether the meta layer is currently held.
func (h *Handler) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Activate holds the meta modifier and marks the layer active.
func (h *Handler) Activate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		return nil
	}
	if err := h.keys.Press(key.LeftMeta); err != nil {
		return err
	}
	h.active = true
	h.logger.Debug("meta layer on")
	return nil
}

// Deactivate releases the meta modifier and marks the layer inactive.
func (h *Handler) Deactivate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return nil
	}
	if err := h.keys.Release(key.LeftMeta); err != nil {
		return err
	}
	h.active = false
	h.logger.Debug("meta layer off")
	return nil
}

// ObserveKey watches the event stream for the Meta+L lock chord. It
// never consumes the event; the host still locks the session.
func (h *Handler) ObserveKey(c key.Code, pressed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c == key.LeftMeta || c == key.RightMeta {
		h.metaDown = pressed
		return
	}
	if pressed && c == key.L && (h.active || h.metaDown) {
		h.logger.Info("host lock chord seen, locking gate")
		h.locker.LockNow()
	}
}
