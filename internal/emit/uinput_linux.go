//go:build linux

package emit

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ebolton/keygate/internal/key"
)

// uinput ioctl requests, from linux/uinput.h.
const (
	uiSetEvBit  = 0x40045564 // _IOW('U', 100, int)
	uiSetKeyBit = 0x40045565 // _IOW('U', 101, int)
	uiDevSetup  = 0x405c5503 // _IOW('U', 3, struct uinput_setup)
	uiDevCreate = 0x00005501 // _IO('U', 1)
	uiDevDestroy = 0x00005502 // _IO('U', 2)
)

// synReport is SYN_REPORT from linux/input-event-codes.h, which x/sys/unix
// does not export.
const synReport = 0

// uinputSetup mirrors struct uinput_setup: input_id, name[80], ff_effects_max.
type uinputSetup struct {
	bustype      uint16
	vendor       uint16
	product      uint16
	version      uint16
	name         [80]byte
	ffEffectsMax uint32
}

// UinputDevice is a virtual keyboard created through /dev/uinput. The kernel
// presents it to the host exactly like a physical keyboard, which is how the
// daemon's synthesized keystrokes reach applications.
type UinputDevice struct {
	f *os.File
}

// NewUinputDevice creates and registers the virtual keyboard.
func NewUinputDevice(name string) (*UinputDevice, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0660)
	if err != nil {
		return nil, fmt.Errorf("opening /dev/uinput: %w", err)
	}
	fd := int(f.Fd())

	if err := unix.IoctlSetInt(fd, uiSetEvBit, unix.EV_KEY); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput EV_KEY: %w", err)
	}
	if err := unix.IoctlSetInt(fd, uiSetEvBit, unix.EV_SYN); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput EV_SYN: %w", err)
	}

	// Register every key code the emitter can produce.
	for code := 1; code < 256; code++ {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, code); err != nil {
			f.Close()
			return nil, fmt.Errorf("uinput keybit %d: %w", code, err)
		}
	}

	setup := uinputSetup{
		bustype: unix.BUS_VIRTUAL,
		vendor:  0x1d6b,
		product: 0x0104,
		version: 1,
	}
	copy(setup.name[:], name)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&setup))); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("uinput dev setup: %w", errno)
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevCreate, 0); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("uinput dev create: %w", errno)
	}

	// The kernel needs a moment to register the device with the input
	// subsystem before it accepts events.
	time.Sleep(200 * time.Millisecond)

	return &UinputDevice{f: f}, nil
}

func (d *UinputDevice) KeyDown(c key.Code) error {
	return d.emit(c, 1)
}

func (d *UinputDevice) KeyUp(c key.Code) error {
	return d.emit(c, 0)
}

// emit writes one key event followed by a SYN_REPORT marker.
func (d *UinputDevice) emit(c key.Code, value int32) error {
	if err := d.writeEvent(unix.EV_KEY, uint16(c), value); err != nil {
		return err
	}
	return d.writeEvent(unix.EV_SYN, synReport, 0)
}

// writeEvent marshals a struct input_event (64-bit layout: 16-byte timeval,
// type, code, value). The kernel fills timestamps itself, so the timeval is
// left zero.
func (d *UinputDevice) writeEvent(typ, code uint16, value int32) error {
	var buf [24]byte
	binary.LittleEndian.PutUint16(buf[16:], typ)
	binary.LittleEndian.PutUint16(buf[18:], code)
	binary.LittleEndian.PutUint32(buf[20:], uint32(value))
	if _, err := d.f.Write(buf[:]); err != nil {
		return fmt.Errorf("writing input event: %w", err)
	}
	return nil
}

// Close destroys the virtual device.
func (d *UinputDevice) Close() error {
	unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), uiDevDestroy, 0)
	return d.f.Close()
}
