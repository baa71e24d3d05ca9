package mathx

import (
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	if got := Clamp(5, 1, 3); got != 3 {
		t.Fatalf("Clamp high: %d", got)
	}
	if got := Clamp(-1, 1, 3); got != 1 {
		t.Fatalf("Clamp low: %d", got)
	}
	if got := Clamp(2, 3, 1); got != 2 {
		t.Fatalf("Clamp swapped bounds: %d", got)
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault(0, 8, 1, 64); got != 8 {
		t.Fatalf("zero -> default: %d", got)
	}
	if got := OrDefault(-3, 8, 1, 64); got != 8 {
		t.Fatalf("negative -> default: %d", got)
	}
	if got := OrDefault(100, 8, 1, 64); got != 64 {
		t.Fatalf("clamped: %d", got)
	}
	d := OrDefault(time.Duration(0), 250*time.Millisecond, time.Millisecond, time.Second)
	if d != 250*time.Millisecond {
		t.Fatalf("duration default: %v", d)
	}
}
