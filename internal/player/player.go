package player

import "github.com/stagelight/lumacast/internal/dmx"

// Player executes playback commands for the control core. Implementations own
// format support and hardware decode; calls may block and must be treated as
// potentially slow by callers.
type Player interface {
	Load(source string) error
	Play() error
	Pause() error
	Resume() error
	SetLoop(enabled bool) error
	Stop() error
	SetVolume(volume float64) error
	SetEffects(fx dmx.Effects) error
}
