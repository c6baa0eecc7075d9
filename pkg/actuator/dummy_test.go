package actuator

import "testing"

func TestDummyTracksCommandedAngles(t *testing.T) {
	d := NewDummy()
	if err := d.SendAngles(Angles{1, 2, 3, 4, 5, 6}, 50); err != nil {
		t.Fatal(err)
	}
	if err := d.SendAngle(6, -90, 10); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetAngles()
	if err != nil {
		t.Fatal(err)
	}
	if got != (Angles{1, 2, 3, 4, 5, -90}) {
		t.Fatalf("Unexpected angles %v", got)
	}
	if err := d.SendAngle(7, 0, 10); err == nil {
		t.Fatalf("Joint 7 should be rejected")
	}
}
