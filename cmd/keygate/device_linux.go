//go:build linux

package main

import (
	"log/slog"

	"github.com/ebolton/keygate/internal/source"
)

// resolveDevice picks the evdev device to grab, auto-detecting a
// keyboard when no path is given, and returns an opener for it so the
// source monitor can reopen it after an unplug.
func resolveDevice(path string) (source.OpenFunc, string, error) {
	if path == "" {
		detected, err := source.Discover()
		if err != nil {
			return nil, "", err
		}
		path = detected
	}
	open := func() (source.Source, error) {
		return source.Open(path, slog.Default())
	}
	return open, path, nil
}
