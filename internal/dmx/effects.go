package dmx

// Playmode bands on the playmode channel.
const (
	pauseThreshold = 85
	loopThreshold  = 170
)

// PlaymodeFor buckets the playmode byte into its three bands.
func PlaymodeFor(b int) Playmode {
	switch {
	case b >= loopThreshold:
		return Looping
	case b >= pauseThreshold:
		return Paused
	default:
		return PlayOnce
	}
}

// CenteredPercent maps a byte to [-100,100] with 128 as exact zero.
func CenteredPercent(b int) float64 {
	return clamp(float64(b-128)/127.0*100.0, -100, 100)
}

// SpeedFactor maps a byte to a playback rate in [0.25,4.0]. The lower half is
// linear 0.25..1.0, the upper half linear 1.0..4.0; 128 is exactly 1.0.
func SpeedFactor(b int) float64 {
	if b < 128 {
		return 0.25 + float64(b)*(0.75/128.0)
	}
	return 1.0 + float64(b-128)*(3.0/127.0)
}

// RotationDegrees snaps a byte to {0,90,180,270} by quartile.
func RotationDegrees(b int) int {
	switch {
	case b < 64:
		return 0
	case b < 128:
		return 90
	case b < 192:
		return 180
	default:
		return 270
	}
}

// ZoomFactor maps a byte to [-2.0,2.0] with 128 as exact zero.
func ZoomFactor(b int) float64 {
	return clamp(float64(b-128)/127.0*2.0, -2, 2)
}

// PanOffset maps a byte to [-1.0,1.0] with 128 as exact zero.
func PanOffset(b int) float64 {
	return clamp(float64(b-128)/127.0, -1, 1)
}

func clamp(v float64, lo float64, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
