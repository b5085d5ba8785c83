package layout

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ebolton/keygate/internal/key"
)

const sample = `
layers:
  - name: base
    default: true
    keys:
      capslock: layer:nav
      a: tap-hold:a/leftmeta
      d: tap-hold:d/layer:nav
      semicolon: "cycle:;:"
      f9: pin-entry
      f1: secret:0
      f2: secret:3
      menu: meta-layer
      f10: sentence-case-toggle
  - name: nav
    keys:
      h: key:left
      l: key:right
  - name: meta
    keys:
      "1": vdesk:1
      "2": vdesk:2
      r: run:terminal
      l: lock
commands:
  terminal: wt.exe
`

func compile(t *testing.T, src string) *Layout {
	t.Helper()
	l, err := Compile([]byte(src))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return l
}

func TestCompileResolvesBindings(t *testing.T) {
	l := compile(t, sample)

	if l.Base() != "base" {
		t.Errorf("base = %q, want base", l.Base())
	}

	a, ok := l.Resolve("base", key.CapsLock)
	if !ok || a.Kind != ActionLayer || a.Layer != "nav" {
		t.Errorf("capslock = %+v ok=%v, want layer:nav", a, ok)
	}

	a, ok = l.Resolve("base", key.A)
	if !ok || a.Kind != ActionTapHold || a.HoldKind != HoldModifier || a.HoldKey != key.LeftMeta {
		t.Errorf("a = %+v, want tap-hold modifier leftmeta", a)
	}

	a, ok = l.Resolve("base", key.D)
	if !ok || a.Kind != ActionTapHold || a.HoldKind != HoldLayer || a.Layer != "nav" {
		t.Errorf("d = %+v, want tap-hold layer nav", a)
	}

	a, ok = l.Resolve("base", key.Semicolon)
	if !ok || a.Kind != ActionCycle || string(a.CycleSyms) != ";:" {
		t.Errorf("semicolon = %+v, want cycle ;:", a)
	}

	a, ok = l.Resolve("meta", key.N1)
	if !ok || a.Kind != ActionVDesk || a.Desktop != 1 {
		t.Errorf("meta 1 = %+v, want vdesk 1", a)
	}

	a, ok = l.Resolve("meta", key.R)
	if !ok || a.Kind != ActionRun || a.Command != "terminal" {
		t.Errorf("meta r = %+v, want run terminal", a)
	}

	if cmd, ok := l.Command("terminal"); !ok || cmd != "wt.exe" {
		t.Errorf("Command(terminal) = %q ok=%v", cmd, ok)
	}
}

func TestUnboundKeyPassesThrough(t *testing.T) {
	l := compile(t, sample)
	if _, ok := l.Resolve("base", key.Z); ok {
		t.Error("unbound z resolved to a binding")
	}
	if _, ok := l.Resolve("no-such-layer", key.A); ok {
		t.Error("unknown layer resolved a binding")
	}
}

func TestFirstLayerIsDefaultWhenUnmarked(t *testing.T) {
	l := compile(t, "layers:\n  - name: main\n    keys:\n      a: key:b\n")
	if l.Base() != "main" {
		t.Errorf("base = %q, want main", l.Base())
	}
}

func TestSecretIndexes(t *testing.T) {
	l := compile(t, sample)
	got := l.SecretIndexes()
	sort.Ints(got)
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Errorf("SecretIndexes = %v, want [0 3]", got)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"no layers", "commands: {}\n", "no layers"},
		{"duplicate layer", "layers:\n  - name: a\n    keys: {}\n  - name: a\n    keys: {}\n", "duplicate layer"},
		{"two defaults", "layers:\n  - name: a\n    default: true\n    keys: {}\n  - name: b\n    default: true\n    keys: {}\n", "both marked default"},
		{"unknown key", "layers:\n  - name: a\n    keys:\n      nosuchkey: key:b\n", "unknown key"},
		{"unknown target layer", "layers:\n  - name: a\n    keys:\n      b: layer:gone\n", "unknown layer"},
		{"tap-hold non-modifier hold", "layers:\n  - name: a\n    keys:\n      b: tap-hold:b/x\n", "must be a modifier"},
		{"undeclared command", "layers:\n  - name: a\n    keys:\n      b: run:gone\n", "undeclared command"},
		{"negative secret", "layers:\n  - name: a\n    keys:\n      b: secret:-1\n", "non-negative"},
		{"vdesk zero", "layers:\n  - name: a\n    keys:\n      b: vdesk:0\n", "from 1"},
		{"unknown binding", "layers:\n  - name: a\n    keys:\n      b: frobnicate\n", "invalid binding"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile([]byte(tc.src))
			if err == nil {
				t.Fatal("Compile succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLoadHashChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	first, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := os.WriteFile(path, []byte(sample+"\n# touched\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := Load(path)
	if err != nil {
		t.Fatalf("Load after edit: %v", err)
	}

	if first.Hash() == second.Hash() {
		t.Error("hash unchanged after content edit")
	}
	if first.Hash() == "" {
		t.Error("hash is empty")
	}
}
