//go:build !linux

package emit

import "errors"

// NewUinputDevice is linux-only; other platforms run the daemon with the
// replay source and recorder device for layout development.
func NewUinputDevice(name string) (Device, error) {
	return nil, errors.New("uinput output is only supported on linux")
}
