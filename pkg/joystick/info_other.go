//go:build !linux

package joystick

import "errors"

type Info struct {
	Name    string
	Axes    int
	Buttons int
}

func (j *Joystick) Info() (Info, error) {
	return Info{}, errors.New("joystick info is only available on linux")
}
