package vlc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stagelight/lumacast/internal/dmx"
)

// Driver drives a local VLC instance over its HTTP status interface.
//
// The HTTP interface exposes transport, repeat and rate control but not the
// picture adjust filter, so SetEffects applies the playback rate and accepts
// the rest; full effect support needs the gstreamer backend.
type Driver struct {
	baseURL  string
	http     *http.Client
	username string
	password string
	loop     bool
}

// NewDriver creates a VLC HTTP driver.
func NewDriver(baseURL string, username string, password string, timeout time.Duration) (*Driver, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("base_url required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Driver{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		username: username,
		password: password,
	}, nil
}

// Load replaces the playlist with the given source without starting it.
func (d *Driver) Load(source string) error {
	if source == "" {
		return errors.New("source required")
	}
	_, _ = d.request(url.Values{"command": []string{"pl_stop"}})
	_, _ = d.request(url.Values{"command": []string{"pl_empty"}})
	_, err := d.request(url.Values{
		"command": []string{"in_enqueue"},
		"input":   []string{source},
	})
	return err
}

// Play starts the loaded source.
func (d *Driver) Play() error {
	_, err := d.request(url.Values{"command": []string{"pl_play"}})
	return err
}

// Pause pauses playback.
func (d *Driver) Pause() error {
	_, err := d.request(url.Values{"command": []string{"pl_forcepause"}})
	return err
}

// Resume resumes paused playback.
func (d *Driver) Resume() error {
	_, err := d.request(url.Values{"command": []string{"pl_forceresume"}})
	return err
}

// SetLoop enables or disables VLC's native single-input repeat. VLC requeues
// the same input without reopening the pipeline, so the loop boundary drops
// no frames.
func (d *Driver) SetLoop(enabled bool) error {
	status, err := d.status()
	if err != nil {
		return err
	}
	if status.Repeat == enabled {
		d.loop = enabled
		return nil
	}
	if _, err := d.request(url.Values{"command": []string{"pl_repeat"}}); err != nil {
		return err
	}
	d.loop = enabled
	return nil
}

// Stop stops playback.
func (d *Driver) Stop() error {
	_, err := d.request(url.Values{"command": []string{"pl_stop"}})
	return err
}

// SetVolume sets the volume from a 0..1 fraction onto VLC's 0..256 scale.
func (d *Driver) SetVolume(volume float64) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	level := int(volume*256 + 0.5)
	_, err := d.request(url.Values{
		"command": []string{"volume"},
		"val":     []string{strconv.Itoa(level)},
	})
	return err
}

// SetEffects applies what the HTTP interface supports: the playback rate.
func (d *Driver) SetEffects(fx dmx.Effects) error {
	_, err := d.request(url.Values{
		"command": []string{"rate"},
		"val":     []string{strconv.FormatFloat(fx.Speed, 'f', 3, 64)},
	})
	return err
}

type vlcStatus struct {
	State  string `json:"state"`
	Repeat bool   `json:"repeat"`
	Time   int64  `json:"time"`
	Length int64  `json:"length"`
}

func (d *Driver) status() (vlcStatus, error) {
	payload, err := d.request(nil)
	if err != nil {
		return vlcStatus{}, err
	}
	var status vlcStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return vlcStatus{}, err
	}
	return status, nil
}

func (d *Driver) request(values url.Values) ([]byte, error) {
	endpoint := d.baseURL + "/requests/status.json"
	if len(values) > 0 {
		endpoint = endpoint + "?" + values.Encode()
	}
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	if d.username != "" || d.password != "" {
		req.SetBasicAuth(d.username, d.password)
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("vlc error: %s", msg)
	}
	return body, nil
}
