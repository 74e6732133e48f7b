package dmx

import "testing"

func TestPlaymodeBands(t *testing.T) {
	cases := []struct {
		b    int
		want Playmode
	}{
		{0, PlayOnce},
		{84, PlayOnce},
		{85, Paused},
		{169, Paused},
		{170, Looping},
		{255, Looping},
	}
	for _, tc := range cases {
		if got := PlaymodeFor(tc.b); got != tc.want {
			t.Fatalf("playmode(%d) = %s, want %s", tc.b, got, tc.want)
		}
	}
}

func TestCenteredPercent(t *testing.T) {
	if got := CenteredPercent(128); got != 0 {
		t.Fatalf("expected 128 -> 0, got %v", got)
	}
	if got := CenteredPercent(0); got != -100 {
		t.Fatalf("expected 0 -> -100, got %v", got)
	}
	if got := CenteredPercent(255); got != 100 {
		t.Fatalf("expected 255 -> 100, got %v", got)
	}
}

func TestSpeedFactor(t *testing.T) {
	if got := SpeedFactor(0); got != 0.25 {
		t.Fatalf("expected 0 -> 0.25, got %v", got)
	}
	if got := SpeedFactor(128); got != 1.0 {
		t.Fatalf("expected 128 -> 1.0, got %v", got)
	}
	if got := SpeedFactor(255); got != 4.0 {
		t.Fatalf("expected 255 -> 4.0, got %v", got)
	}
	if SpeedFactor(127) >= 1.0 {
		t.Fatalf("expected value just below 1.0 at 127, got %v", SpeedFactor(127))
	}
}

func TestSpeedFactorMonotonic(t *testing.T) {
	prev := SpeedFactor(0)
	for b := 1; b <= 255; b++ {
		cur := SpeedFactor(b)
		if cur <= prev {
			t.Fatalf("speed not strictly increasing at %d: %v <= %v", b, cur, prev)
		}
		prev = cur
	}
}

func TestRotationQuartiles(t *testing.T) {
	cases := []struct {
		b    int
		want int
	}{
		{0, 0}, {63, 0},
		{64, 90}, {127, 90},
		{128, 180}, {191, 180},
		{192, 270}, {255, 270},
	}
	for _, tc := range cases {
		if got := RotationDegrees(tc.b); got != tc.want {
			t.Fatalf("rotation(%d) = %d, want %d", tc.b, got, tc.want)
		}
	}
}

func TestZoomAndPanNeutral(t *testing.T) {
	if ZoomFactor(128) != 0 || PanOffset(128) != 0 {
		t.Fatalf("expected neutral at 128")
	}
	if got := ZoomFactor(0); got != -2.0 {
		t.Fatalf("expected zoom 0 -> -2.0, got %v", got)
	}
	if got := ZoomFactor(255); got != 2.0 {
		t.Fatalf("expected zoom 255 -> 2.0, got %v", got)
	}
	if got := PanOffset(0); got != -1.0 {
		t.Fatalf("expected pan 0 -> -1.0, got %v", got)
	}
	if got := PanOffset(255); got != 1.0 {
		t.Fatalf("expected pan 255 -> 1.0, got %v", got)
	}
}

func TestMapsAreDeterministic(t *testing.T) {
	for b := 0; b <= 255; b++ {
		if SpeedFactor(b) != SpeedFactor(b) || CenteredPercent(b) != CenteredPercent(b) {
			t.Fatalf("non-deterministic map at %d", b)
		}
		if RotationDegrees(b) != RotationDegrees(b) {
			t.Fatalf("non-deterministic rotation at %d", b)
		}
	}
}
