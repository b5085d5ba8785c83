//go:build linux

package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ebolton/keygate/internal/key"
)

// evdev ioctl requests, from linux/input.h.
const (
	eviocGrab = 0x40044590 // EVIOCGRAB, _IOW('E', 0x90, int)
	// EVIOCGBIT(0, 8): event type bitmask, 8 bytes.
	eviocGBitTypes = 0x80084520
)

const inputEventSize = 24

// Evdev reads key events from one /dev/input/event* device, grabbed for
// exclusive access so the host only ever sees what the daemon emits.
type Evdev struct {
	f      *os.File
	path   string
	events chan key.Event
	logger *slog.Logger
}

// Open grabs the device at path and starts the read loop.
func Open(path string, logger *slog.Logger) (*Evdev, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening input device: %w", err)
	}

	if err := unix.IoctlSetInt(int(f.Fd()), eviocGrab, 1); err != nil {
		f.Close()
		return nil, fmt.Errorf("grabbing %s: %w", path, err)
	}

	e := &Evdev{
		f:      f,
		path:   path,
		events: make(chan key.Event, 64),
		logger: logger.With("component", "source", "device", path),
	}
	go e.readLoop()
	return e, nil
}

// Discover returns the first device under /dev/input that looks like a
// keyboard: it supports key events and key repeat.
func Discover() (string, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return "", err
	}
	sort.Strings(paths)
	for _, path := range paths {
		f, err := os.OpenFile(path, os.O_RDONLY, 0)
		if err != nil {
			continue
		}
		ok := isKeyboard(int(f.Fd()))
		f.Close()
		if ok {
			return path, nil
		}
	}
	return "", errors.New("no keyboard device found under /dev/input")
}

func isKeyboard(fd int) bool {
	var types [8]byte
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocGBitTypes,
		uintptr(unsafe.Pointer(&types[0]))); errno != 0 {
		return false
	}
	has := func(bit uint) bool { return types[bit/8]&(1<<(bit%8)) != 0 }
	return has(unix.EV_KEY) && has(unix.EV_REP)
}

// Events implements Source.
func (e *Evdev) Events() <-chan key.Event { return e.events }

func (e *Evdev) readLoop() {
	defer close(e.events)
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := e.f.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				e.logger.Warn("device read failed", "error", err)
			}
			return
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			if ev, ok := decodeEvent(buf[off : off+inputEventSize]); ok {
				e.events <- ev
			}
		}
	}
}

// decodeEvent unpacks a struct input_event (64-bit layout: 16-byte
// timeval, type, code, value). Only key presses and releases pass;
// autorepeat is dropped because the virtual output device generates its
// own repeats.
func decodeEvent(raw []byte) (key.Event, bool) {
	typ := binary.LittleEndian.Uint16(raw[16:])
	code := binary.LittleEndian.Uint16(raw[18:])
	value := int32(binary.LittleEndian.Uint32(raw[20:]))

	if typ != unix.EV_KEY || value > 1 {
		return key.Event{}, false
	}
	return key.Event{Code: key.Code(code), Pressed: value == 1}, true
}

// Close releases the grab and stops the read loop.
func (e *Evdev) Close() error {
	unix.IoctlSetInt(int(e.f.Fd()), eviocGrab, 0)
	return e.f.Close()
}
