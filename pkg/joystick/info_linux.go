package joystick

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	jsiocgAxes    = 0x80016a11
	jsiocgButtons = 0x80016a12
	jsiocgName    = 0x80006a13 + (nameLen << 16)

	nameLen = 128
)

type Info struct {
	Name    string
	Axes    int
	Buttons int
}

// Info asks the driver for the device name and control counts.
func (j *Joystick) Info() (Info, error) {
	var (
		info    Info
		axes    uint8
		buttons uint8
		name    [nameLen]byte
		ioErr   error
	)
	// Control (rather than Fd) keeps the file in non-blocking mode so Close can still
	// interrupt a pending read.
	rc, err := j.device.SyscallConn()
	if err != nil {
		return info, err
	}
	err = rc.Control(func(fd uintptr) {
		if ioErr = ioctl(fd, jsiocgAxes, unsafe.Pointer(&axes)); ioErr != nil {
			return
		}
		if ioErr = ioctl(fd, jsiocgButtons, unsafe.Pointer(&buttons)); ioErr != nil {
			return
		}
		ioErr = ioctl(fd, jsiocgName, unsafe.Pointer(&name[0]))
	})
	if err != nil {
		return info, err
	}
	if ioErr != nil {
		return info, ioErr
	}
	info.Axes = int(axes)
	info.Buttons = int(buttons)
	if i := bytes.IndexByte(name[:], 0); i >= 0 {
		info.Name = string(name[:i])
	} else {
		info.Name = string(name[:])
	}
	return info, nil
}

func ioctl(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
