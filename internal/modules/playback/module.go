package playback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/stagelight/lumacast/internal/adapters/clock"
	"github.com/stagelight/lumacast/internal/library"
	"github.com/stagelight/lumacast/internal/player"
	"github.com/stagelight/lumacast/pkg/show"
)

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// Config configures the playback module.
type Config struct {
	NodeID    string
	TopicBase string
	Name      string
	MediaRoot string
	Depth     int

	// FailMode is the DMX signal-loss policy: "hold" (default) keeps the
	// last applied state, "blackout" stops playback after FailTimeoutMS
	// without frames.
	FailMode      string
	FailTimeoutMS int
}

// Module runs the control loop for one playback node and mirrors its state
// onto the show bus.
type Module struct {
	log      *zap.Logger
	client   mqttClient
	loop     *Loop
	engine   *Engine
	config   Config
	cmdTopic string
	clock    clock.Clock

	mu       sync.Mutex
	snapshot show.StatusSnapshot
}

// NewModule creates a playback module around a player backend.
func NewModule(log *zap.Logger, client mqttClient, p player.Player, cfg Config) (*Module, error) {
	if strings.TrimSpace(cfg.NodeID) == "" {
		return nil, errors.New("node_id required")
	}
	if strings.TrimSpace(cfg.TopicBase) == "" {
		cfg.TopicBase = show.BaseTopic
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "Playback"
	}
	if strings.TrimSpace(cfg.MediaRoot) == "" {
		return nil, errors.New("media_root required")
	}

	failMode, err := ParseFailMode(cfg.FailMode)
	if err != nil {
		return nil, err
	}

	resolver := &library.Resolver{Feeds: library.NewGofeedResolver(0)}
	engine := NewEngine(log, p, resolver)
	loop := NewLoop(engine, cfg.MediaRoot, cfg.Depth)
	loop.ConfigureFailMode(failMode, time.Duration(cfg.FailTimeoutMS)*time.Millisecond)

	m := &Module{
		log:      log,
		client:   client,
		loop:     loop,
		engine:   engine,
		config:   cfg,
		cmdTopic: show.TopicCommands(cfg.TopicBase, cfg.NodeID),
	}
	m.snapshot = engine.Snapshot()
	loop.onSnapshot = m.publishState
	return m, nil
}

// Run publishes presence, subscribes for commands, and drives the control
// loop until the context is cancelled.
func (m *Module) Run(ctx context.Context) error {
	if err := m.publishPresence(); err != nil {
		return err
	}
	m.publishState(m.engine.Snapshot())

	if m.client != nil {
		handler := func(_ paho.Client, msg paho.Message) {
			m.handleMessage(msg)
		}
		if err := m.client.Subscribe(m.cmdTopic, 1, handler); err != nil {
			return err
		}
		defer m.client.Unsubscribe(m.cmdTopic)
	}

	err := m.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Submit hands a raw frame to the control loop.
func (m *Module) Submit(values []int) {
	m.loop.Submit(values)
}

// Snapshot returns the last published status snapshot.
func (m *Module) Snapshot() show.StatusSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// SetMediaRoot swaps the media root at the next frame boundary.
func (m *Module) SetMediaRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return errors.New("media root required")
	}
	m.loop.SetMediaRoot(root)
	m.log.Info("media root changed", zap.String("root", root))
	return nil
}

// MediaRoot returns the active media root.
func (m *Module) MediaRoot() string {
	return m.loop.MediaRoot()
}

func (m *Module) publishPresence() error {
	if m.client == nil {
		return nil
	}
	presence := show.Presence{
		NodeID: m.config.NodeID,
		Kind:   "playback",
		Name:   m.config.Name,
		Caps: map[string]any{
			"dmx":     true,
			"effects": true,
			"loop":    true,
		},
		TS: m.clock.NowUnix(),
	}
	payload, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return m.client.Publish(show.TopicPresence(m.config.TopicBase, m.config.NodeID), 1, true, payload)
}

func (m *Module) publishState(snap show.StatusSnapshot) {
	snap.TS = m.clock.NowUnix()

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	if m.client == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = m.client.Publish(show.TopicState(m.config.TopicBase, m.config.NodeID), 1, true, payload)
}

func (m *Module) handleMessage(msg paho.Message) {
	var cmd show.CommandEnvelope
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}
	if err := show.ValidateCommandEnvelope(cmd); err != nil {
		m.log.Warn("invalid command", zap.Error(err))
		return
	}

	switch cmd.Type {
	case "config.set":
		var body show.ConfigSetBody
		if err := json.Unmarshal(cmd.Body, &body); err != nil {
			m.log.Warn("invalid config.set body", zap.Error(err))
			return
		}
		if err := m.SetMediaRoot(body.MediaRoot); err != nil {
			m.log.Warn("config.set rejected", zap.Error(err))
		}
	default:
		m.log.Warn("unsupported command", zap.String("type", cmd.Type))
	}
}
