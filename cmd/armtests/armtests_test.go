package main

import (
	"testing"

	"github.com/Jibanyan-FCU/side-project/pkg/actuator"
)

func TestExecute(t *testing.T) {
	arm := actuator.NewDummy()
	if err := execute(arm, "a", []string{"83", "140", "-150", "154", "87", "0"}); err != nil {
		t.Fatal(err)
	}
	if err := execute(arm, "j", []string{"6", "-90", "20"}); err != nil {
		t.Fatal(err)
	}
	angles, err := arm.GetAngles()
	if err != nil {
		t.Fatal(err)
	}
	if angles != (actuator.Angles{83, 140, -150, 154, 87, -90}) {
		t.Errorf("Unexpected angles %v", angles)
	}

	for _, bad := range [][]string{
		{"a", "1", "2"},
		{"j", "x", "1"},
		{"c", "1", "2", "300"},
		{"z"},
	} {
		if err := execute(arm, bad[0], bad[1:]); err == nil {
			t.Errorf("Expected an error for %v", bad)
		}
	}
}
