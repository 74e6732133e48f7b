package dmx

import (
	"errors"
	"fmt"
)

// FrameChannels is the fixture footprint: 13 consecutive DMX slots.
const FrameChannels = 13

// Channel offsets within a frame.
const (
	chFile = iota
	chFolder
	chPlaymode
	chVolume
	chBrightness
	chContrast
	chSaturation
	chGamma
	chSpeed
	chRotation
	chZoom
	chPanX
	chPanY
)

// ErrMalformedFrame reports a frame that is not 13 values in [0,255].
var ErrMalformedFrame = errors.New("malformed frame")

// Playmode is the discrete mode selected by the playmode channel band.
type Playmode int

const (
	PlayOnce Playmode = iota
	Paused
	Looping
)

func (m Playmode) String() string {
	switch m {
	case Paused:
		return "paused"
	case Looping:
		return "looping"
	default:
		return "play-once"
	}
}

// Effects holds the continuous playback-effect parameters decoded from a
// frame. Brightness rides along as a raw linear byte; volume does not (it is
// dispatched separately).
type Effects struct {
	Brightness int
	Contrast   float64
	Saturation float64
	Gamma      float64
	Speed      float64
	Rotation   int
	Zoom       float64
	PanX       float64
	PanY       float64
}

// Snapshot is the semantic decoding of one frame. Values are post-mapping:
// two raw frames inside the same band decode to equal snapshots.
type Snapshot struct {
	FileIndex   int
	FolderIndex int
	Mode        Playmode
	Volume      int
	Effects     Effects
}

// Decode maps a raw frame to its semantic snapshot. The mapping is total and
// side-effect-free; the only failure is a malformed frame.
func Decode(values []int) (Snapshot, error) {
	if len(values) != FrameChannels {
		return Snapshot{}, fmt.Errorf("%w: got %d channels, want %d", ErrMalformedFrame, len(values), FrameChannels)
	}
	for i, v := range values {
		if v < 0 || v > 255 {
			return Snapshot{}, fmt.Errorf("%w: channel %d value %d out of range", ErrMalformedFrame, i+1, v)
		}
	}

	return Snapshot{
		FileIndex:   values[chFile],
		FolderIndex: values[chFolder],
		Mode:        PlaymodeFor(values[chPlaymode]),
		Volume:      values[chVolume],
		Effects: Effects{
			Brightness: values[chBrightness],
			Contrast:   CenteredPercent(values[chContrast]),
			Saturation: CenteredPercent(values[chSaturation]),
			Gamma:      CenteredPercent(values[chGamma]),
			Speed:      SpeedFactor(values[chSpeed]),
			Rotation:   RotationDegrees(values[chRotation]),
			Zoom:       ZoomFactor(values[chZoom]),
			PanX:       PanOffset(values[chPanX]),
			PanY:       PanOffset(values[chPanY]),
		},
	}, nil
}
