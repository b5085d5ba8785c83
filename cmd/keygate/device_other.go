//go:build !linux

package main

import (
	"errors"

	"github.com/ebolton/keygate/internal/source"
)

func resolveDevice(path string) (source.OpenFunc, string, error) {
	return nil, "", errors.New("the keygate daemon requires linux (evdev/uinput)")
}
