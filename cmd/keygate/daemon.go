package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebolton/keygate/internal/api"
	"github.com/ebolton/keygate/internal/audit"
	"github.com/ebolton/keygate/internal/config"
	"github.com/ebolton/keygate/internal/emit"
	"github.com/ebolton/keygate/internal/engine"
	"github.com/ebolton/keygate/internal/feature/metalayer"
	"github.com/ebolton/keygate/internal/feature/runcmd"
	"github.com/ebolton/keygate/internal/feature/sentencecase"
	"github.com/ebolton/keygate/internal/feature/taphold"
	"github.com/ebolton/keygate/internal/feature/vdesk"
	"github.com/ebolton/keygate/internal/gate"
	"github.com/ebolton/keygate/internal/layout"
	"github.com/ebolton/keygate/internal/secrets"
	"github.com/ebolton/keygate/internal/source"
	"github.com/ebolton/keygate/internal/trace"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the keygate daemon",
	Long:  "Grab the keyboard, apply the layout, and serve the control API.",
	RunE:  runDaemon,
}

var deviceFlag string

func init() {
	daemonCmd.Flags().StringVar(&deviceFlag, "device", "", "input device path (default: from config, else auto-detect)")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if deviceFlag != "" {
		cfg.Device = deviceFlag
	}

	slog.Info("keygate daemon starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// Layout. A fresh install without one gets pure pass-through.
	var l *layout.Layout
	layoutPath := cfg.Layout
	l, err = layout.Load(layoutPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		slog.Warn("no layout file, running pass-through", "path", layoutPath)
		l = layout.Default()
		layoutPath = ""
	}

	// Audit log and secret store.
	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer auditLog.Close()

	store := secrets.NewAuditedStore(secrets.NewSystemStore(config.Dir()), auditLog, "daemon")

	pin, err := store.Get(cfg.Secrets.PINKey)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("reading PIN: %w", err)
		}
		slog.Warn("no PIN configured; the gate cannot unlock", "key", cfg.Secrets.PINKey)
	}

	table, err := secrets.LoadTable(store, cfg.Secrets.Order)
	if err != nil {
		return fmt.Errorf("loading secrets: %w", err)
	}

	// Devices.
	out, err := emit.NewUinputDevice("keygate virtual keyboard")
	if err != nil {
		return fmt.Errorf("creating output device: %w", err)
	}
	defer out.Close()
	emitter := emit.New(out, cfg.Typing.Interval.Duration)

	// Gate and features.
	g := gate.New(gate.Config{
		PIN:          pin,
		LockTimeout:  cfg.Secrets.LockTimeout.Duration,
		MaxPINLength: cfg.Secrets.MaxPINLength,
	}, table, emitter, gate.WithObserver(audit.NewGateRecorder(auditLog)))

	// Input device under reconnect supervision. An unplugged keyboard
	// locks the gate until the owner unlocks again.
	open, devicePath, err := resolveDevice(cfg.Device)
	if err != nil {
		return fmt.Errorf("resolving input device: %w", err)
	}
	src, err := source.NewMonitor(open, source.WithOnDisconnect(g.LockNow))
	if err != nil {
		return fmt.Errorf("opening input device: %w", err)
	}
	defer src.Close()
	slog.Info("keyboard grabbed", "device", devicePath)

	tr := trace.NewBuffer(cfg.Trace.Size)

	// The runner resolves names against whatever layout is live at call
	// time, so reloads pick up command table edits.
	var eng *engine.Engine
	lookup := func(name string) (string, bool) { return eng.Command(name) }

	eng = engine.New(engine.Deps{
		Source:       src,
		Emitter:      emitter,
		Layout:       l,
		LayoutPath:   layoutPath,
		Gate:         g,
		VDesk:        vdesk.New(emitter, cfg.VDesk.Max, vdesk.WithStateFile(cfg.VDesk.StateFile)),
		Runner:       runcmd.New(emitter, lookup),
		Meta:         metalayer.New(emitter, g, "meta", slog.Default()),
		SentenceCase: sentencecase.New(cfg.SentenceCase.Enabled),
		TapHold:      taphold.NewResolver(cfg.TapHold.Term.Duration),
		TapHoldTerm:  cfg.TapHold.Term.Duration,
		Trace:        tr,
		Device:       devicePath,
	})

	// Control API.
	os.Remove(cfg.Socket)
	if err := os.MkdirAll(filepath.Dir(cfg.Socket), 0o700); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}
	srv := api.NewServer(eng, tr)

	errCh := make(chan error, 2)
	go func() { errCh <- srv.ListenUnix(cfg.Socket) }()
	go func() { errCh <- eng.Run(ctx) }()
	go func() {
		if err := eng.StartWatcher(ctx); err != nil {
			slog.Error("layout watcher stopped", "error", err)
		}
	}()

	slog.Info("keygate daemon ready")

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			slog.Error("daemon error", "error", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	os.Remove(cfg.Socket)

	slog.Info("keygate daemon stopped")
	return nil
}
