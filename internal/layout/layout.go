// Package layout loads and validates keymap files.
//
// A layout file declares named layers of key bindings plus a table of
// runnable commands. Files are YAML; bindings are compact strings parsed
// by ParseAction. Layouts are immutable once compiled, so the engine can
// swap a whole layout atomically on reload.
package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ebolton/keygate/internal/key"
)

// File is the on-disk shape of a layout.
type File struct {
	Layers   []LayerFile       `yaml:"layers"`
	Commands map[string]string `yaml:"commands,omitempty"`
}

// LayerFile is one layer as written in the file.
type LayerFile struct {
	Name    string            `yaml:"name"`
	Default bool              `yaml:"default,omitempty"`
	Keys    map[string]string `yaml:"keys"`
}

// Layout is a compiled, validated layout.
type Layout struct {
	base     string
	layers   map[string]map[key.Code]Action
	order    []string
	commands map[string]string
	hash     string
}

// Load reads, parses, and compiles the layout at path.
func Load(path string) (*Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	return Compile(raw)
}

// Compile parses and validates raw layout YAML.
func Compile(raw []byte) (*Layout, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	if len(f.Layers) == 0 {
		return nil, fmt.Errorf("layout declares no layers")
	}

	l := &Layout{
		layers:   make(map[string]map[key.Code]Action, len(f.Layers)),
		commands: f.Commands,
	}

	for _, lf := range f.Layers {
		if lf.Name == "" {
			return nil, fmt.Errorf("layer without a name")
		}
		if _, dup := l.layers[lf.Name]; dup {
			return nil, fmt.Errorf("duplicate layer %q", lf.Name)
		}
		if lf.Default {
			if l.base != "" {
				return nil, fmt.Errorf("layers %q and %q both marked default", l.base, lf.Name)
			}
			l.base = lf.Name
		}

		bindings := make(map[key.Code]Action, len(lf.Keys))
		for name, spec := range lf.Keys {
			c, err := key.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("layer %q: %w", lf.Name, err)
			}
			a, err := ParseAction(spec)
			if err != nil {
				return nil, fmt.Errorf("layer %q key %q: %w", lf.Name, name, err)
			}
			bindings[c] = a
		}
		l.layers[lf.Name] = bindings
		l.order = append(l.order, lf.Name)
	}

	if l.base == "" {
		l.base = f.Layers[0].Name
	}

	// Cross-layer checks need the full layer set.
	for _, name := range l.order {
		for c, a := range l.layers[name] {
			switch a.Kind {
			case ActionLayer:
				if _, ok := l.layers[a.Layer]; !ok {
					return nil, fmt.Errorf("layer %q key %s targets unknown layer %q", name, c, a.Layer)
				}
			case ActionTapHold:
				if a.HoldKind == HoldLayer {
					if _, ok := l.layers[a.Layer]; !ok {
						return nil, fmt.Errorf("layer %q key %s tap-hold targets unknown layer %q", name, c, a.Layer)
					}
				}
			case ActionRun:
				if _, ok := l.commands[a.Command]; !ok {
					return nil, fmt.Errorf("layer %q key %s runs undeclared command %q", name, c, a.Command)
				}
			}
		}
	}

	sum := sha256.Sum256(raw)
	l.hash = hex.EncodeToString(sum[:])
	return l, nil
}

// Default returns an empty pass-through layout, used when no layout
// file exists yet.
func Default() *Layout {
	l, err := Compile([]byte("layers:\n  - name: base\n    keys: {}\n"))
	if err != nil {
		panic(err)
	}
	return l
}

// Base returns the name of the default layer.
func (l *Layout) Base() string { return l.base }

// Layers returns the layer names in file order.
func (l *Layout) Layers() []string { return l.order }

// Resolve looks up the binding for code on the named layer. The second
// return is false when the layer has no binding for the key, in which
// case the key passes through unchanged.
func (l *Layout) Resolve(layer string, code key.Code) (Action, bool) {
	bindings, ok := l.layers[layer]
	if !ok {
		return Action{}, false
	}
	a, ok := bindings[code]
	return a, ok
}

// Has reports whether the layout declares the named layer.
func (l *Layout) Has(layer string) bool {
	_, ok := l.layers[layer]
	return ok
}

// Command returns the command line registered under name.
func (l *Layout) Command(name string) (string, bool) {
	cmd, ok := l.commands[name]
	return cmd, ok
}

// SecretIndexes returns every secret index referenced by any layer, for
// validation against the configured secret order.
func (l *Layout) SecretIndexes() []int {
	seen := map[int]bool{}
	var out []int
	for _, name := range l.order {
		for _, a := range l.layers[name] {
			if a.Kind == ActionSecret && !seen[a.Secret] {
				seen[a.Secret] = true
				out = append(out, a.Secret)
			}
		}
	}
	return out
}

// Hash returns the sha256 of the raw layout bytes, used to detect
// changes across reloads.
func (l *Layout) Hash() string { return l.hash }
