package lumacastd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for lumacastd.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	DMX     DMXConfig     `toml:"dmx"`
	Media   MediaConfig   `toml:"media"`
	Player  PlayerConfig  `toml:"player"`
	Modules ModulesConfig `toml:"modules"`
}

// ServerConfig defines shared daemon settings.
type ServerConfig struct {
	Broker    string     `toml:"broker"`
	NodeID    string     `toml:"node_id"`
	Name      string     `toml:"name"`
	TopicBase string     `toml:"topic_base"`
	LogLevel  string     `toml:"log_level"`
	LogFormat string     `toml:"log_format"`
	LogOutput string     `toml:"log_output"`
	TLS       TLSConfig  `toml:"tls"`
	Auth      AuthConfig `toml:"auth"`
}

// TLSConfig holds TLS paths for MQTT.
type TLSConfig struct {
	CA   string `toml:"ca"`
	Cert string `toml:"cert"`
	Key  string `toml:"key"`
}

// AuthConfig holds MQTT auth credentials.
type AuthConfig struct {
	User string `toml:"user"`
	Pass string `toml:"pass"`
}

// DMXConfig configures frame ingestion.
type DMXConfig struct {
	Listen  string `toml:"listen"`
	Address int    `toml:"address"`
	Depth   int    `toml:"depth"`
	// FailMode selects the signal-loss policy: "hold" keeps the last state,
	// "blackout" stops playback after fail_timeout_ms without frames.
	FailMode      string `toml:"fail_mode"`
	FailTimeoutMS int    `toml:"fail_timeout_ms"`
}

// MediaConfig configures the media library.
type MediaConfig struct {
	Root string `toml:"root"`
}

// PlayerConfig selects and configures the player backend.
type PlayerConfig struct {
	Backend   string          `toml:"backend"`
	VLC       VLCConfig       `toml:"vlc"`
	GStreamer GStreamerConfig `toml:"gstreamer"`
}

// VLCConfig configures the VLC HTTP backend.
type VLCConfig struct {
	URL       string `toml:"url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	TimeoutMS int64  `toml:"timeout_ms"`
}

// GStreamerConfig configures the GStreamer backend.
type GStreamerConfig struct {
	Device string `toml:"device"`
}

// ModulesConfig holds optional module configurations.
type ModulesConfig struct {
	StatusWeb    StatusWebConfig    `toml:"status_web"`
	EmbeddedMQTT EmbeddedMQTTConfig `toml:"embedded_mqtt"`
}

// StatusWebConfig configures the operator HTTP API.
type StatusWebConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// EmbeddedMQTTConfig configures the embedded MQTT broker.
type EmbeddedMQTTConfig struct {
	Enabled        bool   `toml:"enabled"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
}

// LoadConfig loads a config file from path.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Config{}, err
	}
	if info.IsDir() {
		return Config{}, errors.New("config path is a directory")
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings the daemon cannot default.
func (c Config) Validate() error {
	if c.Media.Root == "" {
		return errors.New("media.root required")
	}
	switch c.Player.Backend {
	case "", "vlc", "gstreamer":
	default:
		return errors.New("player.backend must be vlc or gstreamer")
	}
	switch c.DMX.FailMode {
	case "", "hold", "blackout":
	default:
		return errors.New("dmx.fail_mode must be hold or blackout")
	}
	return nil
}

// DefaultConfigPath returns the default config location.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lumacast", "lumacastd.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lumacast", "lumacastd.toml"), nil
}
