package playback

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/stagelight/lumacast/internal/dmx"
	"github.com/stagelight/lumacast/pkg/show"
)

// FailMode selects what happens when DMX frames stop arriving.
type FailMode int

const (
	// FailHold keeps the last applied state on signal loss.
	FailHold FailMode = iota
	// FailBlackout stops playback after the fail timeout passes without a
	// frame.
	FailBlackout
)

// ParseFailMode parses a fail mode name. The empty string means hold.
func ParseFailMode(name string) (FailMode, error) {
	switch name {
	case "", "hold":
		return FailHold, nil
	case "blackout":
		return FailBlackout, nil
	}
	return FailHold, fmt.Errorf("unknown dmx fail mode %q", name)
}

// Loop is the single-goroutine control loop between frame ingestion and the
// engine. Ingestion never blocks on the player: Submit drops the oldest
// pending frame when the buffer is full, and Run drains to the latest frame
// before applying, so a slow player command only ever delays the newest
// state, never replays stale ones.
type Loop struct {
	engine *Engine
	frames chan []int
	root   atomic.Pointer[string]

	failMode    FailMode
	failTimeout time.Duration

	// onSnapshot, when set, receives the status snapshot after every applied
	// frame. Used by the module to publish retained state.
	onSnapshot func(show.StatusSnapshot)
}

// NewLoop creates a control loop around the engine.
func NewLoop(engine *Engine, root string, depth int) *Loop {
	if depth <= 0 {
		depth = 8
	}
	l := &Loop{engine: engine, frames: make(chan []int, depth)}
	l.root.Store(&root)
	return l
}

// Submit hands a raw frame to the loop. Non-blocking: under backpressure the
// oldest queued frame is discarded in favour of the new one.
func (l *Loop) Submit(values []int) {
	frame := make([]int, len(values))
	copy(frame, values)
	for {
		select {
		case l.frames <- frame:
			return
		default:
		}
		select {
		case <-l.frames:
		default:
		}
	}
}

// ConfigureFailMode sets the signal-loss policy. Blackout with a zero
// timeout defaults to five seconds.
func (l *Loop) ConfigureFailMode(mode FailMode, timeout time.Duration) {
	if mode == FailBlackout && timeout <= 0 {
		timeout = 5 * time.Second
	}
	l.failMode = mode
	l.failTimeout = timeout
}

// SetMediaRoot swaps the media root. The new root takes effect at the next
// frame boundary; the frame being processed finishes under the old root.
func (l *Loop) SetMediaRoot(root string) {
	l.root.Store(&root)
}

// MediaRoot returns the current media root.
func (l *Loop) MediaRoot() string {
	return *l.root.Load()
}

// Run processes frames until the context is cancelled. In blackout fail
// mode a watchdog stops playback when no frame arrives within the timeout.
func (l *Loop) Run(ctx context.Context) error {
	var watchdog *time.Timer
	var lost <-chan time.Time
	if l.failMode == FailBlackout {
		watchdog = time.NewTimer(l.failTimeout)
		defer watchdog.Stop()
		lost = watchdog.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-l.frames:
			if watchdog != nil {
				if !watchdog.Stop() {
					select {
					case <-watchdog.C:
					default:
					}
				}
				watchdog.Reset(l.failTimeout)
				lost = watchdog.C
			}
			l.apply(l.latest(frame))
		case <-lost:
			// One blackout per outage; the watchdog re-arms on the next
			// frame.
			lost = nil
			l.engine.SignalLost()
			if l.onSnapshot != nil {
				l.onSnapshot(l.engine.Snapshot())
			}
		}
	}
}

// latest drains any queued frames and returns the newest one.
func (l *Loop) latest(frame []int) []int {
	for {
		select {
		case next := <-l.frames:
			frame = next
		default:
			return frame
		}
	}
}

func (l *Loop) apply(frame []int) {
	snap, err := dmx.Decode(frame)
	if err != nil {
		l.engine.RecordError(err)
	} else {
		l.engine.Apply(*l.root.Load(), snap)
	}
	if l.onSnapshot != nil {
		l.onSnapshot(l.engine.Snapshot())
	}
}
