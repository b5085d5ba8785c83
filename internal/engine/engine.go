// Package engine runs the daemon's input pipeline: it reads key events
// from the grabbed device, resolves them against the active layout
// layer, hands them to features and the secrets gate, and emits the
// results on the virtual output device. Unhandled keys pass through
// unchanged, so the keyboard keeps working even with an empty layout.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ebolton/keygate/internal/feature/metalayer"
	"github.com/ebolton/keygate/internal/feature/runcmd"
	"github.com/ebolton/keygate/internal/feature/sentencecase"
	"github.com/ebolton/keygate/internal/feature/taphold"
	"github.com/ebolton/keygate/internal/feature/vdesk"
	"github.com/ebolton/keygate/internal/gate"
	"github.com/ebolton/keygate/internal/key"
	"github.com/ebolton/keygate/internal/layout"
	"github.com/ebolton/keygate/internal/source"
	"github.com/ebolton/keygate/internal/trace"
)

const (
	tickInterval    = 20 * time.Millisecond
	watcherDebounce = 500 * time.Millisecond
)

// Emitter is the output surface the engine drives.
type Emitter interface {
	Press(key.Code) error
	Release(key.Code) error
	Tap(key.Code) error
	Chord(mods []key.Code, c key.Code) error
	Type(s string) error
}

// Deps carries everything the engine wires together.
type Deps struct {
	Source  source.Source
	Emitter Emitter
	Layout  *layout.Layout
	// LayoutPath enables hot reload when non-empty.
	LayoutPath string

	Gate         *gate.Gate
	VDesk        *vdesk.Switcher
	Runner       *runcmd.Runner
	Meta         *metalayer.Handler
	SentenceCase *sentencecase.Tracker
	TapHold      *taphold.Resolver
	// TapHoldTerm also bounds symbol-cycle restarts.
	TapHoldTerm time.Duration

	Trace  *trace.Buffer
	Logger *slog.Logger

	// Device is reported in status only.
	Device string
}

// Engine is the daemon core.
type Engine struct {
	mu     sync.Mutex
	layout *layout.Layout
	deps   Deps
	logger *slog.Logger

	// downs routes key releases to whatever their press decided.
	downs     map[key.Code]downAction
	momentary []string
	modsDown  map[key.Code]bool
	cyclers   map[key.Code]*taphold.Cycler
	// pendingAction is the binding of the tap-hold key awaiting
	// resolution.
	pendingAction layout.Action

	startedAt time.Time
}

// Status is a snapshot for the control API and the status views.
type Status struct {
	Gate         gate.Status `json:"gate"`
	Layer        string      `json:"layer"`
	Desktop      int         `json:"desktop"`
	SentenceCase bool        `json:"sentence_case"`
	Device       string      `json:"device,omitempty"`
	LayoutHash   string      `json:"layout_hash"`
	StartedAt    time.Time   `json:"started_at"`
}

// New creates an engine from its dependencies.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		layout:    deps.Layout,
		deps:      deps,
		logger:    logger.With("component", "engine"),
		downs:     make(map[key.Code]downAction),
		modsDown:  make(map[key.Code]bool),
		cyclers:   make(map[key.Code]*taphold.Cycler),
		startedAt: time.Now(),
	}
}

// Run processes events until the context is cancelled or the source
// closes.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	e.logger.Info("engine running", "layout", e.layoutHash())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-e.deps.Source.Events():
			if !ok {
				return fmt.Errorf("input device closed")
			}
			e.handle(ev, time.Now())
		case now := <-ticker.C:
			e.tick(now)
		}
	}
}

// tick drives time-based state: gate auto-lock and tap-hold promotion.
func (e *Engine) tick(now time.Time) {
	e.deps.Gate.Tick(now)
	if _, ok := e.deps.TapHold.Tick(now); ok {
		e.mu.Lock()
		a := e.pendingAction
		e.mu.Unlock()
		e.beginHold(a)
	}
}

// Reload re-reads the layout file and swaps it in atomically. Running
// holds (momentary layers, pending tap-holds) are untouched.
func (e *Engine) Reload() error {
	if e.deps.LayoutPath == "" {
		return fmt.Errorf("no layout path configured")
	}
	l, err := layout.Load(e.deps.LayoutPath)
	if err != nil {
		return err
	}
	e.mu.Lock()
	old := e.layout.Hash()
	e.layout = l
	e.mu.Unlock()
	if old != l.Hash() {
		e.logger.Info("layout reloaded", "hash", l.Hash()[:12])
	}
	return nil
}

// StartWatcher watches the layout file's directory and reloads after
// changes settle. It blocks until the context is cancelled.
func (e *Engine) StartWatcher(ctx context.Context) error {
	if e.deps.LayoutPath == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(e.deps.LayoutPath)); err != nil {
		return err
	}
	e.logger.Info("watching layout for changes", "path", e.deps.LayoutPath)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != e.deps.LayoutPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watcherDebounce, func() {
				if err := e.Reload(); err != nil {
					e.logger.Error("layout auto-reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("layout watcher error", "error", err)
		}
	}
}

// Command resolves a run-command name against the current layout.
func (e *Engine) Command(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.Command(name)
}

// Lock locks the secrets gate immediately.
func (e *Engine) Lock() {
	e.deps.Gate.LockNow()
}

// ResetDesktop corrects the desktop tracker without emitting any
// gesture, for when the user switched desktops with the mouse.
func (e *Engine) ResetDesktop(n int) error {
	return e.deps.VDesk.Reset(n)
}

// Status returns a snapshot of the running state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	layer := e.activeLayerLocked()
	hash := e.layout.Hash()
	e.mu.Unlock()

	return Status{
		Gate:         e.deps.Gate.Status(),
		Layer:        layer,
		Desktop:      e.deps.VDesk.Current(),
		SentenceCase: e.deps.SentenceCase.Enabled(),
		Device:       e.deps.Device,
		LayoutHash:   hash,
		StartedAt:    e.startedAt,
	}
}

func (e *Engine) layoutHash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.layout.Hash()
	if len(h) > 12 {
		h = h[:12]
	}
	return h
}

// activeLayerLocked resolves the layer for the next event. The meta
// layer wins over momentary holds, which win over the base layer.
func (e *Engine) activeLayerLocked() string {
	if e.deps.Meta.Active() {
		return e.deps.Meta.Layer()
	}
	if n := len(e.momentary); n > 0 {
		return e.momentary[n-1]
	}
	return e.layout.Base()
}
