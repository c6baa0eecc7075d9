package actuator

import (
	"fmt"
	"sync"
)

// Dummy is an arm that only logs what it is asked to do.  GetAngles reports whatever
// was last commanded.
type Dummy struct {
	lock   sync.Mutex
	angles Angles
}

func NewDummy() *Dummy {
	return &Dummy{}
}

var _ Interface = (*Dummy)(nil)

func (d *Dummy) SendAngles(angles Angles, speed int) error {
	fmt.Printf("DARM: SendAngles angles=%v speed=%v\n", angles, speed)
	d.lock.Lock()
	d.angles = angles
	d.lock.Unlock()
	return nil
}

func (d *Dummy) SendAngle(joint int, degrees float64, speed int) error {
	fmt.Printf("DARM: SendAngle joint=%v degrees=%v speed=%v\n", joint, degrees, speed)
	if joint < 1 || joint > NumJoints {
		return fmt.Errorf("joint %d out of range", joint)
	}
	d.lock.Lock()
	d.angles[joint-1] = degrees
	d.lock.Unlock()
	return nil
}

func (d *Dummy) GetAngles() (Angles, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	fmt.Printf("DARM: GetAngles -> %v\n", d.angles)
	return d.angles, nil
}

func (d *Dummy) Stop() error {
	fmt.Println("DARM: Stop")
	return nil
}

func (d *Dummy) SetColor(c Color) error {
	fmt.Printf("DARM: SetColor %v\n", c)
	return nil
}

func (d *Dummy) ReleaseAllServos() error {
	fmt.Println("DARM: ReleaseAllServos")
	return nil
}
