// Package pca9685 drives the NXP PCA9685 16-channel PWM controller over i2c.
package pca9685

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40
	NumPorts    = 16

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	mode1Sleep   = 0x10
	mode1AllCall = 0x01
	mode1Restart = 0x80

	// Set in the high byte of the off register to hold an output fully off.
	fullOff = 0x10

	oscillatorHz = 25_000_000

	PWMFrequency = 50
	PWMPeriod    = time.Second / PWMFrequency
	PWMMax       = 4095
)

// ServoPulse is the pulse width range that sweeps a servo end to end.
type ServoPulse struct {
	Min, Max time.Duration
}

// DefaultServoPulse suits most 180 degree hobby servos.
var DefaultServoPulse = ServoPulse{Min: 500 * time.Microsecond, Max: 2500 * time.Microsecond}

var ErrBadPort = errors.New("PWM port out of range")

type Interface interface {
	Configure() error
	// SetServo sets a servo position, 0 to 1.
	SetServo(port int, value float64) error
	// SetPWM sets a duty cycle, 0 to 1.
	SetPWM(port int, value float64) error
	// Off stops the output completely.
	Off(port int) error
	Close() error
}

type registers interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type PCA9685 struct {
	dev   registers
	pulse ServoPulse
}

var _ Interface = (*PCA9685)(nil)

func New(deviceFile string, pulse ServoPulse) (*PCA9685, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, DefaultAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCA9685 on %s: %w", deviceFile, err)
	}
	return &PCA9685{
		dev:   dev,
		pulse: pulse,
	}, nil
}

// PreScale returns the pre-scaler register value for an output frequency.
func PreScale(hz float64) byte {
	return byte(math.Round(oscillatorHz/(4096*hz)) - 1)
}

func (p *PCA9685) Configure() error {
	steps := []struct {
		reg byte
		val byte
	}{
		// The pre-scaler can only be written while asleep.
		{RegMode1, mode1Sleep | mode1AllCall},
		{RegPreScale, PreScale(PWMFrequency)},
		{RegMode1, mode1AllCall},
	}
	for _, s := range steps {
		if err := p.dev.WriteReg(s.reg, []byte{s.val}); err != nil {
			return fmt.Errorf("failed to configure PCA9685: %w", err)
		}
	}
	// Required delay for the oscillator after waking.
	time.Sleep(1 * time.Millisecond)
	return p.dev.WriteReg(RegMode1, []byte{mode1Restart | mode1AllCall})
}

func (p *PCA9685) SetServo(port int, value float64) error {
	value = clamp(value)
	pulse := float64(p.pulse.Min) + value*float64(p.pulse.Max-p.pulse.Min)
	return p.setOffTime(port, uint16(PWMMax*pulse/float64(PWMPeriod)))
}

func (p *PCA9685) SetPWM(port int, value float64) error {
	return p.setOffTime(port, uint16(PWMMax*clamp(value)))
}

func (p *PCA9685) Off(port int) error {
	if port < 0 || port >= NumPorts {
		return fmt.Errorf("%w: %d", ErrBadPort, port)
	}
	return p.dev.WriteReg(portReg(port), []byte{0, 0, 0, fullOff})
}

func (p *PCA9685) setOffTime(port int, off uint16) error {
	if port < 0 || port >= NumPorts {
		return fmt.Errorf("%w: %d", ErrBadPort, port)
	}
	return p.dev.WriteReg(portReg(port), []byte{0, 0, byte(off & 0xff), byte(off >> 8)})
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

func portReg(port int) byte {
	return byte(RegLEDBase + port*4)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Dummy returns a PCA9685 that logs instead of touching the bus.
func Dummy() Interface {
	return &dummy{}
}

type dummy struct{}

func (*dummy) Configure() error {
	fmt.Println("DPWM: Configure")
	return nil
}

func (*dummy) SetServo(port int, value float64) error {
	fmt.Printf("DPWM: SetServo port=%d value=%.3f\n", port, value)
	return nil
}

func (*dummy) SetPWM(port int, value float64) error {
	fmt.Printf("DPWM: SetPWM port=%d value=%.3f\n", port, value)
	return nil
}

func (*dummy) Off(port int) error {
	fmt.Printf("DPWM: Off port=%d\n", port)
	return nil
}

func (*dummy) Close() error {
	return nil
}
