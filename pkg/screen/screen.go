// Package screen shows the controller's state on the 128x128 RGB565 framebuffer.
package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
	"github.com/Jibanyan-FCU/side-project/pkg/lifecycle"
)

const (
	Size           = 128
	RefreshPeriod  = 500 * time.Millisecond
	bytesPerPixel  = 2
	framebufferLen = Size * Size * bytesPerPixel
)

type Status struct {
	Joint int
	Color actuator.Color
	// Message replaces the joint display once shutdown has started.
	Message string
	// Countdown is the number of seconds left in the shutdown wait, if non-zero.
	Countdown int
}

// Screen collects status from the pipeline and redraws it periodically.
type Screen struct {
	lock   sync.Mutex
	status Status
	device string
}

func New(device string) *Screen {
	return &Screen{device: device, status: Status{Joint: 1}}
}

func (s *Screen) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status
}

func (s *Screen) ReportState(joint int, color actuator.Color) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Joint = joint
	s.status.Color = color
}

func (s *Screen) ShutdownStep(step lifecycle.Step) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Message = step.String()
	s.status.Countdown = 0
}

func (s *Screen) Countdown(remaining int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Countdown = remaining
}

// LoopUpdatingScreen redraws until ctx is cancelled, then blanks the screen.
func (s *Screen) LoopUpdatingScreen(ctx context.Context) {
	f, err := os.OpenFile(s.device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Screen: failed to open, ignoring:", err)
		return
	}
	defer f.Close()

	ticker := time.NewTicker(RefreshPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var blank [framebufferLen]byte
			_ = writeFrame(f, blank[:])
			return
		case <-ticker.C:
		}
		if err := writeFrame(f, PackRGB565(Render(s.Status()))); err != nil {
			fmt.Println("Screen failure:", err)
			return
		}
	}
}

func writeFrame(f *os.File, buf []byte) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	// The panel driver drops data if it is written in one go.
	for i := 0; i < Size; i++ {
		if _, err := f.Write(buf[i*Size*bytesPerPixel : (i+1)*Size*bytesPerPixel]); err != nil {
			return err
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

func Render(st Status) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	// LED colour swatch across the top.
	dc.SetRGB255(int(st.Color.R), int(st.Color.G), int(st.Color.B))
	dc.DrawRectangle(4, 4, Size-8, 24)
	dc.Fill()

	dc.SetRGBA(1, 0.9, 0, 1)
	if st.Message != "" {
		dc.DrawStringAnchored(st.Message, Size/2, 60, 0.5, 0.5)
		if st.Countdown > 0 {
			dc.DrawStringAnchored(fmt.Sprintf("[%d]", st.Countdown), Size/2, 84, 0.5, 0.5)
		}
		return dc.Image()
	}

	dc.DrawStringAnchored("JOINT", Size/2, 48, 0.5, 0.5)
	for j := 1; j <= actuator.NumJoints; j++ {
		x := float64(j-1)*20 + 14
		if j == st.Joint {
			dc.DrawRectangle(x-8, 62, 16, 20)
			dc.Fill()
			dc.SetRGB(0, 0, 0)
			dc.DrawStringAnchored(fmt.Sprint(j), x, 72, 0.5, 0.5)
			dc.SetRGBA(1, 0.9, 0, 1)
			continue
		}
		dc.DrawStringAnchored(fmt.Sprint(j), x, 72, 0.5, 0.5)
	}
	return dc.Image()
}

// PackRGB565 converts img to the panel's little-endian RGB565 layout.  The panel is
// mounted rotated, so image columns become framebuffer rows.
func PackRGB565(img image.Image) []byte {
	buf := make([]byte, framebufferLen)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			off := (Size-1-y)*bytesPerPixel + x*Size*bytesPerPixel
			buf[off+1] = (rb << 3) | (gb >> 3)
			buf[off] = bb | (gb << 5)
		}
	}
	return buf
}
