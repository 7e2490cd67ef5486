package util

import (
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(-1, 0, 1) != 0 {
		t.Errorf("Clamp: -1 is not in [0, 1]")
	}

	if Clamp(+1, 0, 1) != 1 {
		t.Errorf("Clamp: +1 should be [0, 1]")
	}

	if Clamp(0, 0, 1) != 0 {
		t.Errorf("Clamp: 0 should be [0, 1]")
	}

	if Clamp(+2, 0, 1) != 1 {
		t.Errorf("Clamp: 2 was not cut")
	}
}

func TestMinMax(t *testing.T) {
	if Min(1, 2) != 1 || Min(2, 1) != 1 {
		t.Errorf("Min is confused about its arguments")
	}

	if Max(1, 2) != 2 || Max(2, 1) != 2 {
		t.Errorf("Max is confused about its arguments")
	}

	if Min64(-5, 5) != -5 || Max64(-5, 5) != 5 {
		t.Errorf("64 bit variants do not handle signs")
	}

	if UMin32(1, 2) != 1 || UMax32(1, 2) != 2 {
		t.Errorf("32 bit unsigned variants are confused")
	}

	big := uint32(0xffffffff)
	if UMax32(big, 0) != big {
		t.Errorf("UMax32 does not survive the upper end of uint32")
	}
}

func TestGCDAndLCM(t *testing.T) {
	gcdTests := [][3]int{
		{6, 4, 2},
		{4, 6, 2},
		{7, 13, 1},
		{42, 42, 42},
	}

	for _, test := range gcdTests {
		if got := GCD(test[0], test[1]); got != test[2] {
			t.Errorf("GCD(%d, %d) = %d; want %d", test[0], test[1], got, test[2])
		}
	}

	lcmTests := [][3]int{
		{6, 7, 42},
		{7, 8, 56},
		{9, 10, 90},
		{4, 6, 12},
		{5, 5, 5},
	}

	for _, test := range lcmTests {
		if got := LCM(test[0], test[1]); got != test[2] {
			t.Errorf("LCM(%d, %d) = %d; want %d", test[0], test[1], got, test[2])
		}
	}
}
