//go:build gstreamer

package gstreamer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-gst/go-gst/gst"

	"github.com/stagelight/lumacast/internal/dmx"
)

// Driver plays media through a GStreamer playbin. Looping re-queues the uri
// from the about-to-finish signal, which keeps the decode pipeline open
// across the loop boundary.
type Driver struct {
	mu      sync.Mutex
	device  string
	volume  float64
	loop    bool
	source  string
	current *gst.Element
	balance *gst.Element
	gamma   *gst.Element
	flip    *gst.Element
}

var gstInitOnce sync.Once

// NewDriver creates a GStreamer driver.
func NewDriver(device string) (*Driver, error) {
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})
	return &Driver{device: device, volume: 1.0}, nil
}

// Load builds a fresh playbin for the source without starting it.
func (d *Driver) Load(source string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if source == "" {
		return errors.New("source required")
	}
	d.stopCurrentLocked()

	pipeline, err := gst.ParseLaunch(fmt.Sprintf("playbin uri=%s", sourceURI(source)))
	if err != nil {
		return err
	}
	filter, err := gst.NewBinFromString("videobalance name=balance ! gamma name=gamma ! videoflip name=flip", true)
	if err == nil {
		_ = pipeline.SetProperty("video-filter", filter)
		d.balance, _ = filter.GetElementByName("balance")
		d.gamma, _ = filter.GetElementByName("gamma")
		d.flip, _ = filter.GetElementByName("flip")
	}
	_ = pipeline.SetProperty("volume", d.volume)

	// Gapless loop: hand playbin the same uri again before the current one
	// finishes, so no stop/reopen cycle happens at the boundary.
	_, _ = pipeline.Connect("about-to-finish", func(el *gst.Element) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.loop && d.source != "" {
			_ = el.SetProperty("uri", sourceURI(d.source))
		}
	})

	if err := pipeline.SetState(gst.StatePaused); err != nil {
		return err
	}
	d.current = pipeline
	d.source = source
	return nil
}

// Play starts the loaded pipeline.
func (d *Driver) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return errors.New("nothing loaded")
	}
	return d.current.SetState(gst.StatePlaying)
}

// Pause pauses playback.
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return errors.New("nothing loaded")
	}
	return d.current.SetState(gst.StatePaused)
}

// Resume resumes playback.
func (d *Driver) Resume() error {
	return d.Play()
}

// SetLoop enables or disables re-queueing at the loop boundary. There is no
// iteration cap; the pipeline loops until the flag changes.
func (d *Driver) SetLoop(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loop = enabled
	return nil
}

// Stop tears down the current pipeline.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopCurrentLocked()
	return nil
}

// SetVolume sets the playbin volume (0..1).
func (d *Driver) SetVolume(volume float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = volume
	if d.current != nil {
		return d.current.SetProperty("volume", volume)
	}
	return nil
}

// SetEffects maps decoded effect values onto the filter chain and a rate
// seek. Zoom and pan have no stock playbin filter element; they stay on the
// status surface only.
func (d *Driver) SetEffects(fx dmx.Effects) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.balance != nil {
		// videobalance: brightness -1..1 (0 neutral), contrast/saturation
		// 0..2 (1 neutral).
		_ = d.balance.SetProperty("brightness", float64(fx.Brightness)/255.0-1.0)
		_ = d.balance.SetProperty("contrast", 1.0+fx.Contrast/100.0)
		_ = d.balance.SetProperty("saturation", 1.0+fx.Saturation/100.0)
	}
	if d.gamma != nil {
		// gamma: 1.0 neutral, values below darken.
		g := 1.0 + fx.Gamma/100.0
		if g < 0.1 {
			g = 0.1
		}
		_ = d.gamma.SetProperty("gamma", g)
	}
	if d.flip != nil {
		d.flip.SetArg("method", flipMethod(fx.Rotation))
	}
	if d.current != nil && fx.Speed > 0 {
		position := int64(0)
		if ok, pos := d.current.QueryPosition(gst.FormatTime); ok {
			position = pos
		}
		if !d.current.Seek(fx.Speed, gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagAccurate,
			gst.SeekTypeSet, position, gst.SeekTypeNone, 0) {
			return errors.New("rate seek rejected")
		}
	}
	return nil
}

func (d *Driver) stopCurrentLocked() {
	if d.current == nil {
		return
	}
	_ = d.current.SetState(gst.StateNull)
	d.current = nil
	d.balance = nil
	d.gamma = nil
	d.flip = nil
	d.source = ""
}

func flipMethod(rotation int) string {
	switch rotation {
	case 90:
		return "clockwise"
	case 180:
		return "rotate-180"
	case 270:
		return "counterclockwise"
	default:
		return "none"
	}
}

func sourceURI(source string) string {
	if strings.Contains(source, "://") {
		return source
	}
	return "file://" + source
}
