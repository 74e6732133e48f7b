//go:build !gstreamer

package gstreamer

import (
	"errors"

	"github.com/stagelight/lumacast/internal/dmx"
)

var errNotBuilt = errors.New("gstreamer build tag not enabled")

// Driver is a stub when the gstreamer tag is not enabled.
type Driver struct{}

// NewDriver returns an error when the gstreamer build tag is missing.
func NewDriver(device string) (*Driver, error) {
	return nil, errNotBuilt
}

func (d *Driver) Load(source string) error          { return errNotBuilt }
func (d *Driver) Play() error                       { return errNotBuilt }
func (d *Driver) Pause() error                      { return errNotBuilt }
func (d *Driver) Resume() error                     { return errNotBuilt }
func (d *Driver) SetLoop(enabled bool) error        { return errNotBuilt }
func (d *Driver) Stop() error                       { return errNotBuilt }
func (d *Driver) SetVolume(volume float64) error    { return errNotBuilt }
func (d *Driver) SetEffects(fx dmx.Effects) error   { return errNotBuilt }
