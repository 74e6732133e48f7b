package playback

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/dmx"
	"github.com/stagelight/lumacast/internal/library"
	"github.com/stagelight/lumacast/internal/player"
	"github.com/stagelight/lumacast/pkg/show"
)

// Status is the playback machine state.
type Status int

const (
	Stopped Status = iota
	Playing
	Paused
	Looping
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Looping:
		return "looping"
	default:
		return "stopped"
	}
}

// resolver resolves folder/file indices against the media root.
type resolver interface {
	Resolve(root string, folderIndex int, fileIndex int) (library.Media, error)
}

// Engine owns the playback state machine. It consumes decoded snapshots from
// the control loop (single goroutine) and issues commands to the player. The
// machine has no terminal state; Stopped is the re-enterable idle state.
type Engine struct {
	log      *zap.Logger
	player   player.Player
	resolver resolver
	detector dmx.Detector

	status    Status
	target    dmx.Snapshot
	source    string
	loaded    bool
	lastError string
	frames    uint64
}

// NewEngine creates an engine in the Stopped state.
func NewEngine(log *zap.Logger, p player.Player, r resolver) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, player: p, resolver: r}
}

// Apply processes one decoded snapshot against the committed state. Errors
// never propagate: they are recorded on the snapshot and current playback
// stays untouched.
func (e *Engine) Apply(root string, snap dmx.Snapshot) {
	e.frames++
	changes := e.detector.Diff(snap)
	if !changes.Any() {
		return
	}

	switch {
	case changes.Target:
		if e.applyTarget(root, snap) {
			// A fresh load starts from the player's defaults, so the whole
			// continuous surface re-applies even when those channels did not
			// move since the last frame.
			changes.Volume = true
			changes.Effects = true
		} else if changes.Mode {
			// The target did not take; the mode still modifies whatever is
			// loaded.
			e.applyMode(snap.Mode)
		}
	case changes.Mode:
		e.applyMode(snap.Mode)
	}
	if changes.Volume {
		e.applyVolume(snap.Volume)
	}
	if changes.Effects {
		e.applyEffects(snap.Effects)
	}

	// Commit is all-or-nothing: even a failed resolution commits the decoded
	// snapshot, so the same frame never retriggers the failure.
	e.detector.Commit(snap)
	e.target = snap
}

// RecordError stores a non-fatal error on the status snapshot.
func (e *Engine) RecordError(err error) {
	e.frames++
	e.lastError = err.Error()
	e.log.Warn("frame error", zap.Error(err))
}

// SignalLost blacks out after DMX signal loss: playback stops and the
// committed state resets, so the first frame after the signal returns
// re-applies everything.
func (e *Engine) SignalLost() {
	if err := e.player.Stop(); err != nil {
		e.log.Warn("player stop", zap.Error(err))
	}
	e.status = Stopped
	e.source = ""
	e.loaded = false
	e.lastError = "dmx signal lost"
	e.detector.Reset()
	e.log.Warn("dmx signal lost, blacked out")
}

// Snapshot returns a copy of the current state for status consumers.
func (e *Engine) Snapshot() show.StatusSnapshot {
	fx := e.target.Effects
	return show.StatusSnapshot{
		Status:      e.status.String(),
		FolderIndex: e.target.FolderIndex,
		FileIndex:   e.target.FileIndex,
		Source:      e.source,
		Playmode:    e.target.Mode.String(),
		Volume:      e.target.Volume,
		Brightness:  fx.Brightness,
		Contrast:    fx.Contrast,
		Saturation:  fx.Saturation,
		Gamma:       fx.Gamma,
		Speed:       fx.Speed,
		Rotation:    fx.Rotation,
		Zoom:        fx.Zoom,
		PanX:        fx.PanX,
		PanY:        fx.PanY,
		LastError:   e.lastError,
		Frames:      e.frames,
	}
}

// applyTarget reports whether a new source was loaded, so the caller knows
// the continuous surface must be re-dispatched.
func (e *Engine) applyTarget(root string, snap dmx.Snapshot) bool {
	if snap.FileIndex == 0 {
		if err := e.player.Stop(); err != nil {
			e.lastError = fmt.Sprintf("player stop: %v", err)
		}
		e.status = Stopped
		e.source = ""
		e.loaded = false
		e.log.Info("playback stopped")
		return false
	}

	media, err := e.resolver.Resolve(root, snap.FolderIndex, snap.FileIndex)
	if err != nil {
		// Keep playing whatever was already running.
		e.lastError = err.Error()
		e.log.Warn("resolve failed",
			zap.Int("folder", snap.FolderIndex),
			zap.Int("file", snap.FileIndex),
			zap.Error(err))
		return false
	}

	if err := e.player.Load(media.Source); err != nil {
		e.lastError = fmt.Sprintf("player load: %v", err)
		e.log.Warn("load failed", zap.String("source", media.Source), zap.Error(err))
		if !e.loaded {
			e.status = Stopped
			e.source = ""
		}
		return false
	}
	if err := e.player.Play(); err != nil {
		e.lastError = fmt.Sprintf("player play: %v", err)
	}
	e.loaded = true
	e.source = media.Source
	e.status = Playing
	e.lastError = ""
	e.log.Info("playing",
		zap.String("source", media.Source),
		zap.String("folder", media.Folder),
		zap.String("playmode", snap.Mode.String()))
	e.applyMode(snap.Mode)
	return true
}

// applyMode is a persistent modifier of the loaded target: it re-applies
// play/pause/loop without reloading.
func (e *Engine) applyMode(mode dmx.Playmode) {
	if e.status == Stopped || !e.loaded {
		return
	}

	switch mode {
	case dmx.Paused:
		if err := e.player.Pause(); err != nil {
			e.lastError = fmt.Sprintf("player pause: %v", err)
			return
		}
		e.status = Paused
	case dmx.Looping:
		if e.status == Paused {
			if err := e.player.Resume(); err != nil {
				e.lastError = fmt.Sprintf("player resume: %v", err)
				return
			}
		}
		// Native seamless loop, no iteration cap: it runs until the mode
		// changes.
		if err := e.player.SetLoop(true); err != nil {
			e.lastError = fmt.Sprintf("player loop: %v", err)
			return
		}
		e.status = Looping
	default:
		if e.status == Paused {
			if err := e.player.Resume(); err != nil {
				e.lastError = fmt.Sprintf("player resume: %v", err)
				return
			}
		}
		if err := e.player.SetLoop(false); err != nil {
			e.lastError = fmt.Sprintf("player loop: %v", err)
			return
		}
		e.status = Playing
	}
}

func (e *Engine) applyVolume(volume int) {
	if e.status == Stopped {
		return
	}
	if err := e.player.SetVolume(float64(volume) / 255.0); err != nil {
		e.lastError = fmt.Sprintf("player volume: %v", err)
	}
}

func (e *Engine) applyEffects(fx dmx.Effects) {
	if e.status == Stopped {
		return
	}
	if err := e.player.SetEffects(fx); err != nil {
		e.lastError = fmt.Sprintf("player effects: %v", err)
	}
}
